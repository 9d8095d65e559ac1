package model

import (
	"reflect"
	"testing"
)

func TestLogSetTopicsPositional(t *testing.T) {
	var l Log
	l.SetTopics([]string{"0xaa", "0xbb"})

	if l.Topic0 == nil || *l.Topic0 != "0xaa" {
		t.Fatalf("topic0 mismatch: %v", l.Topic0)
	}
	if l.Topic1 == nil || *l.Topic1 != "0xbb" {
		t.Fatalf("topic1 mismatch: %v", l.Topic1)
	}
	if l.Topic2 != nil || l.Topic3 != nil {
		t.Fatalf("expected topic2/topic3 to be nil")
	}

	if got := l.Topics(); !reflect.DeepEqual(got, []string{"0xaa", "0xbb"}) {
		t.Fatalf("topics mismatch: %v", got)
	}
}

func TestLogSetTopicsTruncatesToFour(t *testing.T) {
	var l Log
	l.SetTopics([]string{"0x1", "0x2", "0x3", "0x4", "0x5"})

	want := []string{"0x1", "0x2", "0x3", "0x4"}
	if got := l.Topics(); !reflect.DeepEqual(got, want) {
		t.Fatalf("topics mismatch: %v != %v", got, want)
	}
}

func TestLogSetTopicsResets(t *testing.T) {
	var l Log
	l.SetTopics([]string{"0x1", "0x2"})
	l.SetTopics(nil)

	if len(l.Topics()) != 0 {
		t.Fatalf("expected no topics after reset")
	}
}
