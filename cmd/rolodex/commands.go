package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/entrhq/rolodex/pkg/directory"
	"github.com/entrhq/rolodex/pkg/entity"
)

// dateLayouts are tried in order when parsing a date argument.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

type command struct {
	name  string
	args  string
	help  string
	nargs int // minimum number of arguments
	run   func(c *commands, args []string) error
}

var commandTable = []command{
	{"add-contact", "NAME [NOTES]", "add a contact", 1, (*commands).addContact},
	{"contact-notes", "ID NOTES", "replace the notes of a contact", 2, (*commands).contactNotes},
	{"contacts", "[ID...]", "list contacts, all of them when no id is given", 0, (*commands).listContacts},
	{"search", "TEXT", "list contacts whose name contains TEXT", 1, (*commands).search},
	{"match", "PATTERN", "list contacts whose name matches a glob such as Al*", 1, (*commands).match},
	{"schedule", "DATE ID...", "schedule a future meeting with the given contacts", 2, (*commands).schedule},
	{"record", "DATE NOTES ID...", "record a meeting that already happened", 3, (*commands).record},
	{"notes", "MEETING NOTES", "attach notes to a meeting that has taken place", 2, (*commands).notes},
	{"meeting", "MEETING", "show a meeting", 1, (*commands).meeting},
	{"future", "CONTACT", "list upcoming meetings with a contact", 1, (*commands).future},
	{"after", "DATE", "list meetings dated after DATE", 1, (*commands).after},
	{"past", "CONTACT", "list past meetings with a contact", 1, (*commands).past},
}

func usageText() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, cmd := range commandTable {
		fmt.Fprintf(w, "  %s %s\t%s\n", cmd.name, cmd.args, cmd.help)
	}
	w.Flush()
	return b.String()
}

// commands executes CLI commands against a store and prints the results.
type commands struct {
	store *directory.Store
	out   io.Writer
	loc   *time.Location
}

func newCommands(store *directory.Store, out io.Writer, loc *time.Location) *commands {
	if loc == nil {
		loc = time.Local
	}
	return &commands{store: store, out: out, loc: loc}
}

// Dispatch runs the command named by args[0].
func (c *commands) Dispatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}
	name, rest := args[0], args[1:]
	for _, cmd := range commandTable {
		if cmd.name != name {
			continue
		}
		if len(rest) < cmd.nargs {
			return fmt.Errorf("usage: %s %s", cmd.name, cmd.args)
		}
		return cmd.run(c, rest)
	}
	return fmt.Errorf("unknown command %q", name)
}

func (c *commands) addContact(args []string) error {
	var notes *string
	if len(args) > 1 {
		notes = &args[1]
	}
	id, err := c.store.AddContact(args[0], notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added contact %d\n", id)
	return nil
}

func (c *commands) contactNotes(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return c.store.UpdateContactNotes(id, args[1])
}

func (c *commands) listContacts(args []string) error {
	if len(args) == 0 {
		c.printContacts(c.store.Contacts())
		return nil
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	contacts, err := c.store.GetContacts(ids...)
	if err != nil {
		return err
	}
	c.printContacts(contacts)
	return nil
}

func (c *commands) search(args []string) error {
	contacts, err := c.store.SearchContacts(&args[0])
	if err != nil {
		return err
	}
	c.printContacts(contacts)
	return nil
}

func (c *commands) match(args []string) error {
	contacts, err := c.store.MatchContacts(args[0])
	if err != nil {
		return err
	}
	c.printContacts(contacts)
	return nil
}

func (c *commands) schedule(args []string) error {
	date, err := c.parseDate(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	id, err := c.store.AddFutureMeeting(ids, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "scheduled meeting %d\n", id)
	return nil
}

func (c *commands) record(args []string) error {
	date, err := c.parseDate(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[2:])
	if err != nil {
		return err
	}
	id, err := c.store.AddPastMeeting(ids, date, &args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "recorded meeting %d\n", id)
	return nil
}

func (c *commands) notes(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return c.store.AddMeetingNotes(id, &args[1])
}

func (c *commands) meeting(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	m, err := c.store.GetMeeting(id)
	if err != nil {
		return err
	}
	c.printMeetings([]entity.Meeting{m})
	return nil
}

func (c *commands) future(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	meetings, err := c.store.FutureMeetingsWith(id)
	if err != nil {
		return err
	}
	c.printMeetings(meetings)
	return nil
}

func (c *commands) after(args []string) error {
	date, err := c.parseDate(args[0])
	if err != nil {
		return err
	}
	c.printMeetings(c.store.FutureMeetingsAfter(date))
	return nil
}

func (c *commands) past(args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	past, err := c.store.PastMeetingsWith(id)
	if err != nil {
		return err
	}
	meetings := make([]entity.Meeting, len(past))
	for i, pm := range past {
		meetings[i] = pm.Meeting
	}
	c.printMeetings(meetings)
	return nil
}

func (c *commands) printContacts(contacts []entity.Contact) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNOTES")
	for _, ct := range contacts {
		fmt.Fprintf(w, "%d\t%s\t%s\n", ct.ID, ct.Name, ct.Notes)
	}
	w.Flush()
}

func (c *commands) printMeetings(meetings []entity.Meeting) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tPARTICIPANTS\tNOTES")
	for _, m := range meetings {
		names := make([]string, len(m.Participants))
		for i, p := range m.Participants {
			names[i] = p.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.ID, m.Date.In(c.loc).Format("2006-01-02 15:04"), m.Kind, strings.Join(names, ", "), m.Notes)
	}
	w.Flush()
}

func (c *commands) parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)", entity.ErrInvalidArgument, s)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid id %q", entity.ErrInvalidArgument, s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
