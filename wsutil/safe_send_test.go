package wsutil

import "testing"

func TestSafeSend_Delivers(t *testing.T) {
	ch := make(chan []byte, 1)
	if !SafeSend(ch, []byte("x")) {
		t.Fatal("send to empty buffered channel should succeed")
	}
	if got := string(<-ch); got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
}

func TestSafeSend_FullChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte("first")
	if SafeSend(ch, []byte("second")) {
		t.Error("send to full channel should be dropped")
	}
}

func TestSafeSend_ClosedChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	close(ch)
	if SafeSend(ch, []byte("x")) {
		t.Error("send to closed channel should report false")
	}
}

func TestSendJSON(t *testing.T) {
	ch := make(chan []byte, 1)
	if !SendJSON(ch, map[string]int{"a": 1}) {
		t.Fatal("SendJSON failed")
	}
	if got := string(<-ch); got != `{"a":1}` {
		t.Errorf("got %s", got)
	}
	if SendJSON(ch, func() {}) {
		t.Error("unmarshalable value should not be sent")
	}
}
