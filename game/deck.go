package game

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// DefaultImages is the built-in catalog of card faces. It holds enough
// distinct images for the largest board.
var DefaultImages = []string{
	"dark-magician.svg",
	"blue-eyes-white-dragon.svg",
	"red-eyes-black-dragon.svg",
	"exodia.svg",
	"kuriboh.svg",
	"celtic-guardian.svg",
	"summoned-skull.svg",
	"dark-magician-girl.svg",
	"time-wizard.svg",
	"mystical-elf.svg",
	"gaia-the-fierce-knight.svg",
	"harpie-lady.svg",
}

var (
	imageDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)
	imageSVG        = regexp.MustCompile(`(?i)\.svg$`)
)

// SanitizeImage trims the image reference, strips any character outside
// [A-Za-z0-9-_.] and requires a non-empty .svg file name.
func SanitizeImage(image string) (string, error) {
	clean := imageDisallowed.ReplaceAllString(strings.TrimSpace(image), "")
	if clean == "" {
		return "", fmt.Errorf("%w: empty image reference", ErrInvalidImage)
	}
	if !imageSVG.MatchString(clean) {
		return "", fmt.Errorf("%w: %q is not an svg file", ErrInvalidImage, clean)
	}
	return clean, nil
}

// pickImages returns n distinct images chosen uniformly at random from catalog.
func pickImages(rng *rand.Rand, catalog []string, n int) ([]string, error) {
	seen := make(map[string]struct{}, len(catalog))
	distinct := make([]string, 0, len(catalog))
	for _, img := range catalog {
		clean, err := SanitizeImage(img)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		distinct = append(distinct, clean)
	}
	if len(distinct) < n {
		return nil, fmt.Errorf("%w: catalog has %d distinct images, need %d", ErrInvalidImage, len(distinct), n)
	}
	shuffle(rng, len(distinct), func(i, j int) {
		distinct[i], distinct[j] = distinct[j], distinct[i]
	})
	return distinct[:n], nil
}

// newDeck creates two cards per image with sequential ids, pair ids equal to
// the image position, then shuffles the storage order.
func newDeck(rng *rand.Rand, images []string) ([]*Card, error) {
	cards := make([]*Card, 0, 2*len(images))
	id := 0
	for pairID, img := range images {
		for k := 0; k < 2; k++ {
			c, err := NewCard(id, img, pairID)
			if err != nil {
				return nil, err
			}
			cards = append(cards, c)
			id++
		}
	}
	shuffle(rng, len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards, nil
}

// shuffle is a Fisher-Yates shuffle driven by rng, so a seeded source yields
// a reproducible order.
func shuffle(rng *rand.Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		swap(i, j)
	}
}
