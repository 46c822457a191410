package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit"
)

// Formatter formats command results for output.
type Formatter interface {
	Objects(w io.Writer, items []fileit.ObjectInfo) error
	Buckets(w io.Writer, names []string) error
	Users(w io.Writer, users []fileit.User) error
	Books(w io.Writer, list fileit.BookList) error
	Signed(w io.Writer, u fileit.SignedURL) error
}

func formatter(cmd *cobra.Command) Formatter {
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return jsonFormatter{}
	}
	return humanFormatter{}
}

// humanFormatter outputs human-readable text.
type humanFormatter struct{}

func (humanFormatter) Objects(w io.Writer, items []fileit.ObjectInfo) error {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "No objects found")
		return nil
	}

	maxPathLen := 4 // "PATH"
	for i := range items {
		maxPathLen = max(maxPathLen, len(items[i].Path))
	}
	maxPathLen = min(maxPathLen, 60)

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, "PATH", "SIZE", "UPDATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxPathLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var total int64
	for i := range items {
		item := &items[i]
		path := item.Path
		if len(path) > maxPathLen {
			path = path[:maxPathLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n",
			maxPathLen,
			path,
			formatSize(item.Size),
			item.LastModified.Format("2006-01-02 15:04:05"),
		)
		total += item.Size
	}

	_, _ = fmt.Fprintf(w, "\n%d object(s) (%s total)\n", len(items), formatSize(total))
	return nil
}

func (humanFormatter) Buckets(w io.Writer, names []string) error {
	if len(names) == 0 {
		_, _ = fmt.Fprintln(w, "No buckets found")
		return nil
	}
	for _, n := range names {
		_, _ = fmt.Fprintln(w, n)
	}
	return nil
}

func (humanFormatter) Users(w io.Writer, users []fileit.User) error {
	if len(users) == 0 {
		_, _ = fmt.Fprintln(w, "No users found")
		return nil
	}
	_, _ = fmt.Fprintf(w, "%-24s  %s\n", "USERNAME", "CREATED")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%-24s  %s\n", u.Username, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (humanFormatter) Books(w io.Writer, list fileit.BookList) error {
	if len(list.Books) == 0 {
		_, _ = fmt.Fprintln(w, "No books found")
		return nil
	}
	for _, b := range list.Books {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Path)
	}
	return nil
}

func (humanFormatter) Signed(w io.Writer, u fileit.SignedURL) error {
	_, _ = fmt.Fprintln(w, u.URL)
	return nil
}

// jsonFormatter outputs JSON.
type jsonFormatter struct{}

func (jsonFormatter) Objects(w io.Writer, items []fileit.ObjectInfo) error {
	return writeJSON(w, fileit.ListResult{Items: items})
}

func (jsonFormatter) Buckets(w io.Writer, names []string) error {
	return writeJSON(w, map[string][]string{"buckets": names})
}

func (jsonFormatter) Users(w io.Writer, users []fileit.User) error {
	return writeJSON(w, map[string][]fileit.User{"users": users})
}

func (jsonFormatter) Books(w io.Writer, list fileit.BookList) error {
	return writeJSON(w, list)
}

func (jsonFormatter) Signed(w io.Writer, u fileit.SignedURL) error {
	return writeJSON(w, u)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
