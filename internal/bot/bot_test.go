package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nicolagi/tgdrive/internal/drive"
	"github.com/nicolagi/tgdrive/internal/drive/memdrive"
	"github.com/nicolagi/tgdrive/internal/selection"
	"github.com/nicolagi/tgdrive/internal/target"
)

const (
	admin   = int64(42)
	chatID  = int64(42)
	storage = int64(-1001)
)

type event struct {
	Op         string
	ChatID     int64
	MessageID  int
	CallbackID string
	Text       string
	Buttons    []Button
}

type fakeChat struct {
	mu       sync.Mutex
	nextID   int
	relayErr error
	relayed  []Attachment
	events   chan event
}

func newFakeChat() *fakeChat {
	return &fakeChat{nextID: 100, events: make(chan event, 64)}
}

func (c *fakeChat) id() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

func (c *fakeChat) Send(_ context.Context, chatID int64, text string, buttons []Button) (int, error) {
	id := c.id()
	c.events <- event{Op: "send", ChatID: chatID, MessageID: id, Text: text, Buttons: buttons}
	return id, nil
}

func (c *fakeChat) Edit(_ context.Context, chatID int64, messageID int, text string) error {
	c.events <- event{Op: "edit", ChatID: chatID, MessageID: messageID, Text: text}
	return nil
}

func (c *fakeChat) Delete(_ context.Context, chatID int64, messageID int) error {
	c.events <- event{Op: "delete", ChatID: chatID, MessageID: messageID}
	return nil
}

func (c *fakeChat) Answer(_ context.Context, callbackID, text string) error {
	c.events <- event{Op: "answer", CallbackID: callbackID, Text: text}
	return nil
}

func (c *fakeChat) Relay(_ context.Context, channelID int64, a Attachment) (int, error) {
	if c.relayErr != nil {
		return 0, c.relayErr
	}
	c.mu.Lock()
	c.relayed = append(c.relayed, a)
	c.mu.Unlock()
	return 777, nil
}

func (c *fakeChat) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-c.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event from the bot")
		return event{}
	}
}

func (c *fakeChat) quiet(t *testing.T) {
	t.Helper()
	select {
	case e := <-c.events:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

type failingIndex struct {
	err error
}

func (f failingIndex) Search(context.Context, string) (map[string]drive.Item, error) {
	return nil, f.err
}

func (f failingIndex) NewFile(context.Context, string, string, int64, int64) (drive.Item, error) {
	return drive.Item{}, f.err
}

type fixture struct {
	bot     *Bot
	chat    *fakeChat
	store   *memdrive.Store
	cache   *selection.Cache
	targets *target.Registry
}

func newFixture(t *testing.T, index Index) *fixture {
	t.Helper()
	store := memdrive.New()
	store.Put(drive.Item{ID: "docs", Kind: drive.KindFolder, Name: "Docs", Path: "/"})
	store.Put(drive.Item{ID: "F2", Kind: drive.KindFolder, Name: "Project X", Path: "/docs"})
	store.Put(drive.Item{ID: "A9", Kind: drive.KindFolder, Name: "Archive", Path: "/"})
	store.Put(drive.Item{ID: "f1", Kind: drive.KindFile, Name: "project-notes.txt", Path: "/"})
	if index == nil {
		index = store
	}
	f := &fixture{
		chat:    newFakeChat(),
		store:   store,
		cache:   selection.NewCache(16, time.Minute),
		targets: target.NewRegistry(target.Target{Path: "/", Name: "Home"}),
	}
	cfg := Config{AdminIDs: []int64{admin}, StorageChannel: storage, AskTimeout: time.Second}
	f.bot = New(cfg, f.chat, index, f.cache, f.targets, nil)
	return f
}

func text(s string) Message {
	return Message{ChatID: chatID, UserID: admin, Private: true, Text: s}
}

func command(name string) Message {
	return Message{ChatID: chatID, UserID: admin, Private: true, Text: "/" + name, Command: name}
}

// startSetFolder runs /set_folder in the background and waits for the prompt.
func (f *fixture) startSetFolder(t *testing.T) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.bot.HandleMessage(context.Background(), command("set_folder"))
	}()
	if e := f.chat.next(t); e.Text != askFolderText {
		t.Fatalf("got %q, want the folder prompt", e.Text)
	}
	return done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("folder resolution did not finish")
	}
}

func TestIngestFileFilesUnderCurrentTarget(t *testing.T) {
	f := newFixture(t, nil)
	f.targets.Set(admin, target.Target{Path: "/docs/F2", Name: "Project X"})
	m := text("")
	a := Document("report.pdf", 2097152, "application/pdf", "file-1")
	m.Attachment = &a

	f.bot.HandleMessage(context.Background(), m)

	e := f.chat.next(t)
	for _, want := range []string{"report.pdf", "2.00 MB", "application/pdf", "Project X"} {
		if !strings.Contains(e.Text, want) {
			t.Errorf("confirmation %q lacks %q", e.Text, want)
		}
	}
	items, err := f.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []drive.Item
	for _, it := range items {
		if it.Kind == drive.KindFile && it.Name == "report.pdf" {
			got = append(got, it)
		}
	}
	want := []drive.Item{{Kind: drive.KindFile, Name: "report.pdf", Path: "/docs/F2", Size: 2097152, MessageID: 777}}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(drive.Item{}, "ID", "UploadedAt")); diff != "" {
		t.Errorf("indexed files (-want +got):\n%s", diff)
	}
	if len(f.chat.relayed) != 1 || f.chat.relayed[0].FileID != "file-1" {
		t.Errorf("relayed %+v", f.chat.relayed)
	}
}

func TestIngestFileUnknownMimeType(t *testing.T) {
	f := newFixture(t, nil)
	m := text("")
	a := Sticker("sticker_abc.webp", 1024, "", "file-2")
	m.Attachment = &a
	if err := f.bot.IngestFile(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	e := f.chat.next(t)
	if !strings.Contains(e.Text, "File Type: unknown") || !strings.Contains(e.Text, "Folder: Home") {
		t.Errorf("got %q", e.Text)
	}
}

func TestIngestFileInsertFailureSendsNoConfirmation(t *testing.T) {
	f := newFixture(t, failingIndex{err: errors.New("disk full")})
	m := text("")
	a := Video("clip.mp4", 10, "video/mp4", "file-3")
	m.Attachment = &a

	if err := f.bot.IngestFile(context.Background(), m); err == nil {
		t.Fatal("got nil error")
	}
	e := f.chat.next(t)
	if !strings.HasPrefix(e.Text, "Upload failed") {
		t.Errorf("got %q, want a failure notice", e.Text)
	}
	f.chat.quiet(t)
}

func TestIngestFileRelayFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.chat.relayErr = errors.New("forbidden")
	m := text("")
	a := Audio("song.mp3", 10, "audio/mpeg", "file-4")
	m.Attachment = &a

	if err := f.bot.IngestFile(context.Background(), m); err == nil {
		t.Fatal("got nil error")
	}
	if e := f.chat.next(t); !strings.HasPrefix(e.Text, "Upload failed") {
		t.Errorf("got %q, want a failure notice", e.Text)
	}
	items, _ := f.store.List(context.Background())
	if len(items) != 4 {
		t.Errorf("index grew to %d items", len(items))
	}
}

func TestSetFolderThenSelect(t *testing.T) {
	f := newFixture(t, nil)
	done := f.startSetFolder(t)
	f.bot.HandleMessage(context.Background(), text("proj"))

	menu := f.chat.next(t)
	wait(t, done)
	if menu.Text != selectFolderText {
		t.Fatalf("got %q, want the folder menu", menu.Text)
	}
	if len(menu.Buttons) != 1 || menu.Buttons[0].Label != "Project X" {
		t.Fatalf("got buttons %+v", menu.Buttons)
	}
	if f.cache.Len() != 1 {
		t.Errorf("got %d sessions, want 1", f.cache.Len())
	}

	q := CallbackQuery{ID: "cb1", UserID: admin, ChatID: chatID, MessageID: menu.MessageID, Data: menu.Buttons[0].Payload}
	f.bot.HandleCallback(context.Background(), q)

	if got, want := f.targets.Get(admin), (target.Target{Path: "/docs/F2", Name: "Project X"}); got != want {
		t.Errorf("got target %+v, want %+v", got, want)
	}
	answer := f.chat.next(t)
	if answer.Op != "answer" || answer.Text != "Folder Set Successfully To : Project X" {
		t.Errorf("got %+v", answer)
	}
	edit := f.chat.next(t)
	if edit.Op != "edit" || edit.MessageID != menu.MessageID || !strings.HasPrefix(edit.Text, "Folder Set Successfully To : Project X\n\n") {
		t.Errorf("got %+v", edit)
	}

	// The same button again is a replay.
	f.bot.HandleCallback(context.Background(), q)
	if e := f.chat.next(t); e.Op != "answer" || e.Text != expiredText {
		t.Errorf("got %+v, want the expired notice", e)
	}
	if e := f.chat.next(t); e.Op != "delete" || e.MessageID != menu.MessageID {
		t.Errorf("got %+v, want the menu deleted", e)
	}
}

func TestSetFolderNoMatchAsksAgain(t *testing.T) {
	f := newFixture(t, nil)
	done := f.startSetFolder(t)

	f.bot.HandleMessage(context.Background(), text("nothing"))
	if e := f.chat.next(t); e.Text != "No Folder found with name nothing" {
		t.Fatalf("got %q", e.Text)
	}
	// A file name alone is no match.
	if e := f.chat.next(t); e.Text != askFolderText {
		t.Fatalf("got %q, want the prompt again", e.Text)
	}
	f.bot.HandleMessage(context.Background(), text("notes"))
	if e := f.chat.next(t); e.Text != "No Folder found with name notes" {
		t.Fatalf("got %q", e.Text)
	}
	if e := f.chat.next(t); e.Text != askFolderText {
		t.Fatalf("got %q, want the prompt again", e.Text)
	}
	if f.cache.Len() != 0 {
		t.Errorf("got %d sessions, want none", f.cache.Len())
	}

	f.bot.HandleMessage(context.Background(), command("cancel"))
	if e := f.chat.next(t); e.Text != cancelledText {
		t.Errorf("got %q, want %q", e.Text, cancelledText)
	}
	wait(t, done)
}

func TestSetFolderTimeout(t *testing.T) {
	f := newFixture(t, nil)
	f.bot.askTimeout = 20 * time.Millisecond
	done := f.startSetFolder(t)
	if e := f.chat.next(t); e.Text != timeoutText {
		t.Errorf("got %q, want %q", e.Text, timeoutText)
	}
	wait(t, done)
	if got := f.targets.Get(admin).Name; got != "Home" {
		t.Errorf("target changed to %q", got)
	}
}

func TestSetFolderSearchFailure(t *testing.T) {
	f := newFixture(t, failingIndex{err: errors.New("connection refused")})
	done := f.startSetFolder(t)
	f.bot.HandleMessage(context.Background(), text("proj"))
	if e := f.chat.next(t); !strings.HasPrefix(e.Text, "Search failed") {
		t.Errorf("got %q", e.Text)
	}
	wait(t, done)
}

func TestSetFolderOnePerUser(t *testing.T) {
	f := newFixture(t, nil)
	done := f.startSetFolder(t)

	f.bot.HandleMessage(context.Background(), command("set_folder"))
	if e := f.chat.next(t); e.Text != busyText {
		t.Fatalf("got %q, want %q", e.Text, busyText)
	}

	f.bot.HandleMessage(context.Background(), command("cancel"))
	if e := f.chat.next(t); e.Text != cancelledText {
		t.Fatalf("got %q", e.Text)
	}
	wait(t, done)

	// Free again.
	done = f.startSetFolder(t)
	f.bot.HandleMessage(context.Background(), command("cancel"))
	f.chat.next(t)
	wait(t, done)
}

func TestCommandsAreNotReplies(t *testing.T) {
	f := newFixture(t, nil)
	done := f.startSetFolder(t)

	f.bot.HandleMessage(context.Background(), command("current_folder"))
	if e := f.chat.next(t); e.Text != "Current Folder: Home" {
		t.Fatalf("got %q", e.Text)
	}
	if !f.bot.conv.Waiting(chatID) {
		t.Fatal("conversation ended on a command")
	}
	f.bot.HandleMessage(context.Background(), command("cancel"))
	f.chat.next(t)
	wait(t, done)
}

func TestStaleSelection(t *testing.T) {
	f := newFixture(t, nil)
	f.targets.Set(admin, target.Target{Path: "/A9", Name: "Archive"})
	for _, data := range []string{
		selection.Payload(99, "F2"),
		"set_folder_x",
		"set_folder_0_F2",
	} {
		f.bot.HandleCallback(context.Background(), CallbackQuery{ID: "cb", UserID: admin, ChatID: chatID, MessageID: 7, Data: data})
		if e := f.chat.next(t); e.Op != "answer" || e.Text != expiredText {
			t.Errorf("%s: got %+v", data, e)
		}
		if e := f.chat.next(t); e.Op != "delete" || e.MessageID != 7 {
			t.Errorf("%s: got %+v", data, e)
		}
	}
	if got := f.targets.Get(admin).Name; got != "Archive" {
		t.Errorf("target changed to %q", got)
	}
}

func TestUnauthorizedIgnored(t *testing.T) {
	f := newFixture(t, nil)
	stranger := Message{ChatID: 7, UserID: 7, Private: true, Text: "/start", Command: "start"}
	f.bot.HandleMessage(context.Background(), stranger)
	group := command("start")
	group.Private = false
	f.bot.HandleMessage(context.Background(), group)
	f.bot.HandleCallback(context.Background(), CallbackQuery{ID: "cb", UserID: 7, Data: selection.Payload(1, "F2")})
	f.chat.quiet(t)
}

func TestHelpAndUnknownCommands(t *testing.T) {
	f := newFixture(t, nil)
	for _, tc := range []struct {
		cmd  string
		want string
	}{
		{"start", helpText},
		{"help", helpText},
		{"cancel", nothingToCancelText},
		{"frobnicate", unknownCommandText},
	} {
		f.bot.HandleMessage(context.Background(), command(tc.cmd))
		if e := f.chat.next(t); e.Text != tc.want {
			t.Errorf("/%s: got %q, want %q", tc.cmd, e.Text, tc.want)
		}
	}
	f.bot.HandleMessage(context.Background(), text("hello"))
	f.chat.quiet(t)
}

func TestAnnounce(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.bot.Announce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e := f.chat.next(t); e.ChatID != storage || e.Text != startedText {
		t.Errorf("got %+v", e)
	}
}
