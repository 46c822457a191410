package fileit

import (
	"encoding/json"
	"fmt"
)

// DefaultIndexObject is the object holding the BookList.
const DefaultIndexObject = "test.JSON"

// BookEntry maps one book name to the object path of its XML descriptor.
// On the wire an entry is {"<name>": {"Path": "<path>", ...}}; fields other
// than Path are kept as-is across rewrites.
type BookEntry struct {
	Name  string
	Path  string
	extra map[string]json.RawMessage
}

func (e BookEntry) MarshalJSON() ([]byte, error) {
	body := make(map[string]json.RawMessage, len(e.extra)+1)
	for k, v := range e.extra {
		body[k] = v
	}
	path, err := json.Marshal(e.Path)
	if err != nil {
		return nil, err
	}
	body["Path"] = path
	return json.Marshal(map[string]map[string]json.RawMessage{e.Name: body})
}

func (e *BookEntry) UnmarshalJSON(data []byte) error {
	var outer map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return fmt.Errorf("book entry: %w", err)
	}
	if len(outer) != 1 {
		return fmt.Errorf("book entry: expected exactly one book name, got %d", len(outer))
	}

	for name, body := range outer {
		var path string
		if raw, ok := body["Path"]; ok {
			if err := json.Unmarshal(raw, &path); err != nil {
				return fmt.Errorf("book entry %s: Path: %w", name, err)
			}
		}
		delete(body, "Path")

		e.Name = name
		e.Path = path
		e.extra = nil
		if len(body) > 0 {
			e.extra = body
		}
	}
	return nil
}

// BookList is the master index document.
type BookList struct {
	Books []BookEntry `json:"BookList"`
}

func (l BookList) MarshalJSON() ([]byte, error) {
	books := l.Books
	if books == nil {
		books = []BookEntry{}
	}
	return json.Marshal(struct {
		Books []BookEntry `json:"BookList"`
	}{books})
}

// ParseBookList decodes an index document. A document without a BookList
// key is treated as an empty list.
func ParseBookList(data []byte) (BookList, error) {
	var l BookList
	if err := json.Unmarshal(data, &l); err != nil {
		return BookList{}, fmt.Errorf("parse book list: %w", err)
	}
	return l, nil
}

// Find returns the entry for name. When several entries share a name the
// last one wins.
func (l BookList) Find(name string) (BookEntry, bool) {
	for i := len(l.Books) - 1; i >= 0; i-- {
		if l.Books[i].Name == name {
			return l.Books[i], true
		}
	}
	return BookEntry{}, false
}

// Put adds an entry or replaces the path of an existing one.
// It reports whether an entry was replaced.
func (l *BookList) Put(name, path string) bool {
	for i := range l.Books {
		if l.Books[i].Name == name {
			l.Books[i].Path = path
			return true
		}
	}
	l.Books = append(l.Books, BookEntry{Name: name, Path: path})
	return false
}

// Remove deletes the first entry named name.
func (l *BookList) Remove(name string) bool {
	for i := range l.Books {
		if l.Books[i].Name == name {
			l.Books = append(l.Books[:i], l.Books[i+1:]...)
			return true
		}
	}
	return false
}
