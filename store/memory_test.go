package store

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryPutGet(t *testing.T) {
	m := NewMemory()
	entry := Entry{Body: []byte("data"), Timestamp: time.Now(), ContentType: "text/plain"}
	if err := m.Put("/a", entry); err != nil {
		t.Fatal(err)
	}
	got, ok, err := m.Get("/a")
	if err != nil || !ok {
		t.Fatalf("Get returned ok=%v err=%v", ok, err)
	}
	if string(got.Body) != "data" || got.ContentType != "text/plain" {
		t.Fatalf("Entry is %+v", got)
	}
}

func TestMemoryPutOverwrites(t *testing.T) {
	m := NewMemory()
	m.Put("/a", Entry{Body: []byte("first")})
	m.Put("/a", Entry{Body: []byte("second")})
	got, _, _ := m.Get("/a")
	if string(got.Body) != "second" {
		t.Fatalf("Body is %s", got.Body)
	}
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	m := NewMemory()
	m.Put("/a", Entry{Body: []byte("data")})
	if err := m.Delete("/a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete("/a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get("/a"); ok {
		t.Fatal("Entry still present after delete")
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory()
	m.Put("/a", Entry{Body: []byte("a")})
	m.Put("/b", Entry{Body: []byte("b")})
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get("/a"); ok {
		t.Fatal("Entry still present after clear")
	}
}

func TestMemoryEvict(t *testing.T) {
	m := NewMemory()
	m.Put("/old", Entry{Body: []byte("old"), Timestamp: time.Now().Add(-time.Hour)})
	m.Put("/new", Entry{Body: []byte("new"), Timestamp: time.Now()})
	evicted, err := m.Evict(time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if evicted != 1 {
		t.Fatalf("Evicted %d entries", evicted)
	}
	if _, ok, _ := m.Get("/old"); ok {
		t.Fatal("Expired entry still present")
	}
	if _, ok, _ := m.Get("/new"); !ok {
		t.Fatal("Live entry evicted")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("/key-%d", i%5)
			m.Put(key, Entry{Body: []byte("data"), Timestamp: time.Now()})
			m.Get(key)
			if i%4 == 0 {
				m.Delete(key)
			}
		}(i)
	}
	wg.Wait()
}
