package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bnema/addonctl/internal/addons"
)

const (
	// MaxJournalEntries is the maximum number of entries listed per account
	MaxJournalEntries = 50
	// TimestampFormat is the format used for journal entry labels
	TimestampFormat = "20060102-150405"

	defaultAccount = "default"
	authorName     = "addonctl"
)

var (
	ErrEntryNotFound = errors.New("journal entry not found")
	ErrAmbiguousRef  = errors.New("journal reference is ambiguous")
)

// Entry describes one pushed collection
type Entry struct {
	Hash    string
	When    time.Time
	Message string
	Count   int
}

// ID returns the short hash of the entry
func (e Entry) ID() string {
	if len(e.Hash) < 8 {
		return e.Hash
	}
	return e.Hash[:8]
}

// Label returns the entry timestamp in journal format
func (e Entry) Label() string {
	return e.When.Local().Format(TimestampFormat)
}

// Journal keeps every pushed collection as a commit in a local git repository,
// one file per account
type Journal struct {
	mu   sync.Mutex
	dir  string
	repo *git.Repository
}

// Open opens the journal repository at dir, creating it when missing
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &Journal{dir: dir, repo: repo}, nil
}

// Dir returns the journal repository path
func (j *Journal) Dir() string {
	return j.dir
}

// Record commits collection as the latest state pushed for email. Pushing an
// identical collection twice records a single entry.
func (j *Journal) Record(email string, collection addons.Collection) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}

	name := fileName(email)
	if err := os.WriteFile(filepath.Join(j.dir, name), append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}

	worktree, err := j.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := worktree.Add(name); err != nil {
		return fmt.Errorf("failed to stage journal file: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	now := time.Now()
	msg := fmt.Sprintf("Pushed %d addons for %s", len(collection), accountLabel(email))
	_, err = worktree.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: signatureEmail(email),
			When:  now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit journal entry: %w", err)
	}
	return nil
}

// List returns the entries recorded for email, newest first
func (j *Journal) List(email string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	commits, err := j.commits(email)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(commits))
	for _, c := range commits {
		entry := Entry{
			Hash:    c.Hash.String(),
			When:    c.Author.When,
			Message: strings.TrimSpace(c.Message),
		}
		if collection, err := readCollection(c, fileName(email)); err == nil {
			entry.Count = len(collection)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Restore returns the collection recorded by the entry matching ref. ref is
// a hash prefix or a 1-based position in List order.
func (j *Journal) Restore(email, ref string) (addons.Collection, *Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	commits, err := j.commits(email)
	if err != nil {
		return nil, nil, err
	}

	var match *object.Commit
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(commits) && len(ref) < 4 {
		match = commits[n-1]
	} else {
		ref = strings.ToLower(strings.TrimSpace(ref))
		if len(ref) < 4 {
			return nil, nil, fmt.Errorf("%w: %q", ErrEntryNotFound, ref)
		}
		for _, c := range commits {
			if !strings.HasPrefix(c.Hash.String(), ref) {
				continue
			}
			if match != nil {
				return nil, nil, fmt.Errorf("%w: %q", ErrAmbiguousRef, ref)
			}
			match = c
		}
	}
	if match == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrEntryNotFound, ref)
	}

	collection, err := readCollection(match, fileName(email))
	if err != nil {
		return nil, nil, err
	}
	entry := &Entry{
		Hash:    match.Hash.String(),
		When:    match.Author.When,
		Message: strings.TrimSpace(match.Message),
		Count:   len(collection),
	}
	return collection, entry, nil
}

// commits walks history touching the account file, newest first
func (j *Journal) commits(email string) ([]*object.Commit, error) {
	if _, err := j.repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	name := fileName(email)
	iter, err := j.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	defer iter.Close()

	return collect(iter, MaxJournalEntries)
}

// collect reads at most limit commits from iter
func collect(iter object.CommitIter, limit int) ([]*object.Commit, error) {
	var out []*object.Commit
	for len(out) < limit {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func readCollection(c *object.Commit, name string) (addons.Collection, error) {
	f, err := c.File(name)
	if err != nil {
		return nil, fmt.Errorf("journal entry %s has no %s: %w", c.Hash.String()[:8], name, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, err
	}
	var collection addons.Collection
	if err := json.Unmarshal([]byte(contents), &collection); err != nil {
		return nil, fmt.Errorf("corrupt journal entry %s: %w", c.Hash.String()[:8], err)
	}
	return collection, nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._@-]+`)

func fileName(email string) string {
	return accountLabel(email) + ".json"
}

func accountLabel(email string) string {
	s := unsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(email)), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return defaultAccount
	}
	return s
}

func signatureEmail(email string) string {
	if strings.Contains(email, "@") {
		return email
	}
	return authorName + "@localhost"
}
