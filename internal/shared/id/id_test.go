package id

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id1.Compare(id2) >= 0 {
		t.Error("IDs from the same generator should sort in creation order")
	}
}

func TestNewCallID(t *testing.T) {
	id := NewCallID()

	if !strings.HasPrefix(id.String(), CallPrefix+"_") {
		t.Fatalf("call ID should start with %q, got %s", CallPrefix+"_", id)
	}
	if len(id) != len(CallPrefix)+1+26 {
		t.Errorf("unexpected call ID length %d", len(id))
	}
	if !IsValid(id.String()) {
		t.Errorf("call ID %s should be valid", id)
	}
}

func TestTimestamp(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := NewGeneratorWithEntropy(bytes.NewReader(make([]byte, 64)), func() time.Time { return fixed })

	id := gen.GenerateWithPrefix("call")
	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if !ts.Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, ts)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"01HX3J5Z8Q7W6V5T4S3R2Q1P0N", true},
		{"call_01HX3J5Z8Q7W6V5T4S3R2Q1P0N", true},
		{"call_", false},
		{"not-an-id", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.id); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := gen.Generate().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
