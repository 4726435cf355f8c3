package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/d60-Lab/networkqy/internal/optimistic"
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

func heart(liked bool) string {
	if liked {
		return red.Sprint("♥")
	}
	return "♡"
}

func renderPost(w io.Writer, p optimistic.Post, pending bool) {
	bold.Fprint(w, p.DisplayName())
	if p.Company != "" {
		faint.Fprintf(w, " @ %s", p.Company)
	}
	faint.Fprintf(w, "  #%s  %s\n", p.Topic, p.ID)
	fmt.Fprintf(w, "  %s\n", p.Content)
	fmt.Fprintf(w, "  %s %d   comments %d", heart(p.Liked), p.LikesCount, p.CommentsCount)
	if pending {
		yellow.Fprint(w, "   saving...")
	}
	fmt.Fprintln(w)
}

func renderComment(w io.Writer, c optimistic.Comment, pending bool) {
	fmt.Fprint(w, "    ")
	cyan.Fprint(w, c.DisplayName())
	fmt.Fprintf(w, ": %s  %s %d", c.Content, heart(c.Liked), c.LikesCount)
	if optimistic.IsTempID(c.ID) || pending {
		yellow.Fprint(w, "   saving...")
	} else {
		faint.Fprintf(w, "  %s", c.ID)
	}
	fmt.Fprintln(w)
}

// terminalNotifier prints toasts as colored status lines.
type terminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *terminalNotifier) Notify(t optimistic.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch t.Level {
	case optimistic.LevelSuccess:
		green.Fprintf(n.w, "✓ %s\n", t.Message)
	case optimistic.LevelError:
		red.Fprintf(n.w, "✗ %s\n", t.Message)
	case optimistic.LevelWarning:
		yellow.Fprintf(n.w, "! %s\n", t.Message)
	default:
		fmt.Fprintf(n.w, "%s\n", t.Message)
	}
}
