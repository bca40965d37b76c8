// Package cli is a thin interactive frontend over the note core. It only
// reads derived view state and issues commands; it never mutates notes
// directly.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"pocketnote/pkg/models"
	"pocketnote/pkg/utils"
)

// Core is the query/command surface the CLI drives.
type Core interface {
	GetFilteredNotes() []models.Note
	GetTrashedNotes() []models.Note
	GetView() models.ViewState
	GetCustomCategories() []string
	IsDarkMode() bool

	AddNote(draft models.NoteDraft) models.Note
	UpdateNote(id string, patch models.NotePatch) (models.Note, bool)
	DeleteNote(id string) bool
	RestoreNote(id string) bool
	PermanentlyDeleteNote(id string) bool
	PinNote(id string) bool
	UnpinNote(id string) bool
	AddCustomCategory(name string) bool
	RemoveCustomCategory(name string) bool
	SetActiveCategory(filter models.CategoryFilter)
	SetSearchQuery(query string)
	ToggleTheme() bool
	ResetAppData() bool
}

// CLI reads commands from an interactive prompt and prints the derived view.
type CLI struct {
	core   Core
	writer io.Writer
}

// New creates a CLI over a core surface.
func New(core Core, writer io.Writer) *CLI {
	return &CLI{core: core, writer: writer}
}

// ShowStorageError prints the one-shot storage banner from startup.
func (c *CLI) ShowStorageError(message string) {
	fmt.Fprintf(c.writer, "!! %s\n", message)
}

// Run starts the prompt loop and blocks until exit or EOF.
func (c *CLI) Run() error {
	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(c.writer, "PocketNote. Type 'help' for commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		c.dispatch(line)
	}
}

func (c *CLI) dispatch(line string) {
	command, rest := splitCommand(line)

	switch command {
	case "help":
		c.printHelp()
	case "list":
		c.printNotes(c.core.GetFilteredNotes())
	case "trash":
		c.printNotes(c.core.GetTrashedNotes())
	case "add":
		c.addNote(rest)
	case "edit":
		c.editNote(rest)
	case "del":
		c.report(c.core.DeleteNote(rest), "note moved to trash")
	case "restore":
		c.report(c.core.RestoreNote(rest), "note restored")
	case "purge":
		c.report(c.core.PermanentlyDeleteNote(rest), "note permanently deleted")
	case "pin":
		c.report(c.core.PinNote(rest), "note pinned")
	case "unpin":
		c.report(c.core.UnpinNote(rest), "note unpinned")
	case "cat":
		c.core.SetActiveCategory(models.ParseFilter(rest))
		c.printNotes(c.core.GetFilteredNotes())
	case "search":
		c.core.SetSearchQuery(rest)
		c.printNotes(c.core.GetFilteredNotes())
	case "cats":
		c.printCategories()
	case "addcat":
		c.report(c.core.AddCustomCategory(rest), "category added")
	case "rmcat":
		c.report(c.core.RemoveCustomCategory(rest), "category removed")
	case "theme":
		if c.core.ToggleTheme() {
			fmt.Fprintln(c.writer, "dark mode on")
		} else {
			fmt.Fprintln(c.writer, "dark mode off")
		}
	case "reset":
		c.report(c.core.ResetAppData(), "all app data reset")
	default:
		fmt.Fprintf(c.writer, "unknown command %q, try 'help'\n", command)
	}
}

// addNote parses "title :: content :: category" (content and category
// optional) and creates the note.
func (c *CLI) addNote(rest string) {
	if strings.TrimSpace(rest) == "" {
		fmt.Fprintln(c.writer, "usage: add <title> [:: content [:: category]]")
		return
	}

	title, content, categoryName := splitDraft(rest)
	if models.IsReservedName(categoryName) {
		fmt.Fprintf(c.writer, "%q is reserved for filtering; using the default category\n", categoryName)
	}

	note := c.core.AddNote(models.NoteDraft{
		Title:    title,
		Content:  content,
		Category: models.NewCategory(categoryName),
	})
	fmt.Fprintf(c.writer, "created %s\n", note.ID)
}

// editNote parses "<id> <field> <value>" where field is title, content, or
// category.
func (c *CLI) editNote(rest string) {
	parts := strings.SplitN(rest, " ", 3)
	if len(parts) < 3 {
		fmt.Fprintln(c.writer, "usage: edit <id> <title|content|category> <value>")
		return
	}

	id, field, value := parts[0], parts[1], parts[2]
	var patch models.NotePatch
	switch field {
	case "title":
		patch.Title = &value
	case "content":
		patch.Content = &value
	case "category":
		if models.IsReservedName(value) {
			fmt.Fprintf(c.writer, "%q is reserved for filtering; using the default category\n", value)
		}
		category := models.NewCategory(value)
		patch.Category = &category
	default:
		fmt.Fprintf(c.writer, "unknown field %q\n", field)
		return
	}

	if _, ok := c.core.UpdateNote(id, patch); ok {
		fmt.Fprintln(c.writer, "updated")
	} else {
		fmt.Fprintln(c.writer, "no such note")
	}
}

func (c *CLI) printNotes(notes []models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(c.writer, "(no notes)")
		return
	}

	registered := make(map[string]bool)
	for _, name := range c.core.GetCustomCategories() {
		registered[name] = true
	}

	for _, note := range notes {
		pin := " "
		if note.IsPinned {
			pin = "*"
		}
		label := note.Category.Name()
		if note.Category.IsCustom() && !registered[label] {
			// Orphaned custom tag: show the derived fallback color.
			label = fmt.Sprintf("%s %s", label, utils.CategoryColor(label))
		}
		fmt.Fprintf(c.writer, "%s %-28s [%s] %s  %s\n",
			pin, note.ID, label, note.CreatedAt.Format("2006-01-02 15:04"), note.Title)
	}
}

func (c *CLI) printCategories() {
	for _, category := range models.BuiltinCategories() {
		fmt.Fprintf(c.writer, "%s (built-in)\n", category.Name())
	}
	for _, name := range c.core.GetCustomCategories() {
		fmt.Fprintln(c.writer, name)
	}
}

func (c *CLI) report(ok bool, success string) {
	if ok {
		fmt.Fprintln(c.writer, success)
	} else {
		fmt.Fprintln(c.writer, "nothing changed")
	}
}

func (c *CLI) printHelp() {
	fmt.Fprint(c.writer, `Commands:
  list                         show the current filtered view
  trash                        show soft-deleted notes
  add <title> [:: content [:: category]]
  edit <id> <title|content|category> <value>
  del|restore|purge <id>       soft delete / restore / permanently delete
  pin|unpin <id>
  cat <name|all>               filter by category
  search <text>                filter by case-insensitive substring
  cats | addcat <n> | rmcat <n>
  theme                        toggle dark mode
  reset                        wipe storage and start empty
  exit
`)
}

func splitCommand(line string) (command, rest string) {
	parts := strings.SplitN(line, " ", 2)
	command = parts[0]
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return command, rest
}

func splitDraft(rest string) (title, content, category string) {
	parts := strings.SplitN(rest, "::", 3)
	title = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		content = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		category = strings.TrimSpace(parts[2])
	}
	return title, content, category
}
