package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/internal/activity"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
)

// ANSI
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
	White = "\033[97m"
	Green = "\033[32m"
	Red   = "\033[31m"
	Cyan  = "\033[36m"
)

func printUsers(w io.Writer, users []models.UserResponse) {
	fmt.Fprintf(w, "  %s%-6s %-24s %-32s %s%s\n", Bold, "ID", "NAME", "EMAIL", "CREATED", Reset)
	fmt.Fprintf(w, "  %s%s%s\n", Dim, strings.Repeat("-", 86), Reset)
	for _, u := range users {
		fmt.Fprintf(w, "  %-6d %-24s %-32s %s%s%s\n", u.ID, u.Name, u.Email, Dim, u.CreatedAt, Reset)
	}
	fmt.Fprintf(w, "  %s%d user(s)%s\n", Dim, len(users), Reset)
}

func printUser(w io.Writer, u models.UserWithPosts) {
	fmt.Fprintf(w, "  %s%s%s%s <%s>\n", Bold, White, u.Name, Reset, u.Email)
	fmt.Fprintf(w, "  %sid %d, created %s%s\n", Dim, u.ID, u.CreatedAt, Reset)
	if len(u.Posts) == 0 {
		fmt.Fprintf(w, "  %sno posts%s\n", Dim, Reset)
		return
	}
	for _, p := range u.Posts {
		fmt.Fprintf(w, "  %s#%d%s %s\n", Cyan, p.ID, Reset, p.Title)
	}
}

func printPosts(w io.Writer, posts []models.PostWithAuthor) {
	fmt.Fprintf(w, "  %s%-6s %-32s %-24s%s\n", Bold, "ID", "TITLE", "AUTHOR", Reset)
	fmt.Fprintf(w, "  %s%s%s\n", Dim, strings.Repeat("-", 64), Reset)
	for _, p := range posts {
		fmt.Fprintf(w, "  %-6d %-32s %-24s\n", p.ID, p.Title, p.Author.Name)
	}
	fmt.Fprintf(w, "  %s%d post(s)%s\n", Dim, len(posts), Reset)
}

func printMetrics(w io.Writer, metrics []activity.Metric) {
	fmt.Fprintf(w, "  %s%-12s %-20s %s%s\n", Bold, "DATE", "TYPE", "COUNT", Reset)
	fmt.Fprintf(w, "  %s%s%s\n", Dim, strings.Repeat("-", 45), Reset)
	for _, m := range metrics {
		fmt.Fprintf(w, "  %-12s %-20s %s%s%s %d\n", m.Date, m.EventType, Green, bar(m.Count, 40), Reset, m.Count)
	}
}

func printTotals(w io.Writer, totals map[string]int) {
	types := make([]string, 0, len(totals))
	for t := range totals {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if totals[types[i]] != totals[types[j]] {
			return totals[types[i]] > totals[types[j]]
		}
		return types[i] < types[j]
	})

	fmt.Fprintf(w, "  %s%sAll-Time Totals%s\n", Bold, White, Reset)
	for _, t := range types {
		fmt.Fprintf(w, "  %-20s %s%s%s %d\n", t, Cyan, bar(totals[t], 50), Reset, totals[t])
	}
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s[ok]%s %s\n", Green, Reset, fmt.Sprintf(format, args...))
}

func printFail(w io.Writer, err error) {
	fmt.Fprintf(w, "  %s[x] %v%s\n", Red, err, Reset)
}

func bar(n, limit int) string {
	return strings.Repeat("#", min(n, limit))
}
