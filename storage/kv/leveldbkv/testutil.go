package leveldbkv

import (
	"testing"

	"github.com/keylink-sys/keylink-go/storage/kv"
)

// WithDB opens a fresh on-disk database in a temporary directory,
// runs f on it, and closes it afterwards.
func WithDB(t testing.TB, f func(db kv.DB)) {
	db, err := OpenDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	f(db)
}
