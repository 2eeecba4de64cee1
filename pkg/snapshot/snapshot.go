// Package snapshot stores named markup snapshots of a shadow document.
//
// A snapshot is the root innerHTML at the time it was saved. Restoring a
// snapshot reconciles the document against it, so only the parts that
// differ touch the live tree.
//
// Two backends are provided:
//
//	store, err := snapshot.NewFileStore(".shadowdom/snapshots")
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := snapshot.NewS3Store(s3.NewFromConfig(cfg), "bucket", "snapshots/")
package snapshot

import (
	"context"
	"regexp"
	"time"

	"github.com/vango-dev/shadowdom/internal/errors"
)

// Sentinel errors for errors.Is.
var (
	ErrNotFound    = errors.New("E160")
	ErrBackend     = errors.New("E161")
	ErrInvalidName = errors.New("E162")
)

// Info describes a stored snapshot.
type Info struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store persists snapshots by name.
type Store interface {
	// Put stores markup under name, replacing any previous snapshot.
	Put(ctx context.Context, name string, markup []byte) error

	// Get returns the markup stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns all snapshots sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// ValidateName returns ErrInvalidName unless name can be used as a
// snapshot name on every backend.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return errors.New("E162").WithDetailf("snapshot name %q", name)
	}
	return nil
}

func notFound(name string) error {
	return errors.New("E160").WithDetailf("no snapshot named %q", name)
}

func backendErr(op string, err error) error {
	return errors.New("E161").WithDetail(op).Wrap(err)
}
