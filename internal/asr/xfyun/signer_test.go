package xfyun

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestSignerMatchesReferenceConstruction(t *testing.T) {
	s := Signer{AppID: "5f000000", Secret: "abcdef0123456789"}
	ts := "1700000000"

	sum := md5.Sum([]byte("5f000000" + ts))
	mac := hmac.New(sha1.New, []byte("abcdef0123456789"))
	mac.Write([]byte(hex.EncodeToString(sum[:])))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if got := s.Sign(ts); got != want {
		t.Fatalf("Sign() = %q, want %q", got, want)
	}
	if s.Sign("1700000001") == want {
		t.Fatal("expected signature to change with timestamp")
	}
}

func TestSliceIDGeneratorOrderAndCarry(t *testing.T) {
	g := NewSliceIDGenerator(nil)
	if got := g.Next(); got != "aaaaaaaaaa" {
		t.Fatalf("first id = %q", got)
	}
	if got := g.Next(); got != "aaaaaaaaab" {
		t.Fatalf("second id = %q", got)
	}

	seen := map[string]struct{}{}
	g = NewSliceIDGenerator(nil)
	prev := ""
	for i := 0; i < 60; i++ {
		id := g.Next()
		if len(id) != sliceIDWidth {
			t.Fatalf("id %q has width %d", id, len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q at %d", id, i)
		}
		if prev != "" && id <= prev {
			t.Fatalf("ids not increasing: %q then %q", prev, id)
		}
		seen[id] = struct{}{}
		prev = id
	}
	if _, ok := seen["aaaaaaaaaz"]; !ok {
		t.Fatal("expected aaaaaaaaaz in sequence")
	}
	if _, ok := seen["aaaaaaaaba"]; !ok {
		t.Fatal("expected carry to aaaaaaaaba")
	}
}

func TestSliceIDGeneratorWrapsAndNotifies(t *testing.T) {
	wraps := 0
	g := NewSliceIDGenerator(func() { wraps++ })
	for i := range g.digits {
		g.digits[i] = len(sliceIDAlphabet) - 1
	}
	if got := g.Next(); got != "zzzzzzzzzz" {
		t.Fatalf("expected last id, got %q", got)
	}
	if wraps != 1 {
		t.Fatalf("expected one wrap notification, got %d", wraps)
	}
	if got := g.Next(); got != "aaaaaaaaaa" {
		t.Fatalf("expected reset to first id, got %q", got)
	}
}

func TestClassifyProgress(t *testing.T) {
	cases := map[int]progressClass{
		0: progressInFlight, 3: progressInFlight, 5: progressInFlight,
		9: progressDone,
		-1: progressFailed, 6: progressFailed, 7: progressFailed, 8: progressFailed,
		4242: progressUnknown, -7: progressUnknown,
	}
	for status, want := range cases {
		if got := classifyProgress(status); got != want {
			t.Fatalf("classifyProgress(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestDecodeSentencesAcceptsStringAndNumberTimes(t *testing.T) {
	payload := `[{"bg":"1200","ed":"3400","onebest":"你好","speaker":"1"},{"bg":5000,"ed":6100.0,"onebest":"world","speaker":2},{"bg":"oops","ed":"7000","onebest":"kept text"}]`
	got, err := decodeSentences(payload)
	if err != nil {
		t.Fatalf("decodeSentences: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(got))
	}
	if got[0].BeginMs != 1200 || got[0].EndMs != 3400 || got[0].Text != "你好" || got[0].Speaker != "1" || !got[0].TimingValid {
		t.Fatalf("unexpected first sentence %+v", got[0])
	}
	if got[1].BeginMs != 5000 || got[1].EndMs != 6100 || got[1].Speaker != "2" || !got[1].TimingValid {
		t.Fatalf("unexpected second sentence %+v", got[1])
	}
	if got[2].TimingValid || got[2].Text != "kept text" {
		t.Fatalf("expected invalid timing with text kept, got %+v", got[2])
	}
}
