// Package fixtures provides the corpus of input documents used by the scenario suites.
package fixtures

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/document"

	"github.com/bluele/gcache"
)

// Names of the documents in the built-in corpus.
const (
	CredentialBasic           = "credentials/basic.json"
	CredentialIssuerObject    = "credentials/issuer-object.json"
	CredentialNonconforming   = "credentials/nonconforming.json"
	CredentialInvalidValidity = "credentials/invalid-valid-from.json"
	PresentationBasic         = "presentations/basic.json"
	PresentationNonconforming = "presentations/nonconforming.json"
	PresentationMissingType   = "presentations/missing-type.json"
)

//go:embed testdata
var corpus embed.FS

// ErrNotFound is returned for a fixture name that is not in the corpus.
var ErrNotFound = errors.New("fixture not found")

// Store loads fixtures from a file system and caches the parsed documents. Callers always get
// their own deep copy, so a fixture can be modified freely within a test.
type Store struct {
	files fs.FS
	cache gcache.Cache
}

// NewStore creates a Store reading from the built-in corpus.
func NewStore() *Store {
	sub, _ := fs.Sub(corpus, "testdata")
	return NewStoreFromFS(sub)
}

// NewStoreFromFS creates a Store reading from any file system. Names are slash-separated paths
// relative to its root.
func NewStoreFromFS(files fs.FS) *Store {
	s := &Store{files: files}
	s.cache = gcache.New(0).Simple().LoaderFunc(s.load).Build()
	return s
}

func (s *Store) load(key interface{}) (interface{}, error) {
	name := key.(string)
	data, err := fs.ReadFile(s.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	d, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return d, nil
}

// Load returns a deep copy of the named fixture.
func (s *Store) Load(name string) (document.Document, error) {
	v, err := s.cache.Get(path.Clean(name))
	if err != nil {
		return nil, err
	}
	return v.(document.Document).Clone(), nil
}

// MustLoad is like Load, but panics if the fixture cannot be loaded. It is meant for the
// built-in corpus, whose contents are fixed at build time.
func (s *Store) MustLoad(name string) document.Document {
	d, err := s.Load(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Names lists every fixture in the store, sorted.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(s.files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".json") {
			names = append(names, p)
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}
