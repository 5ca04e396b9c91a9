package domain

import "testing"

func TestClassifyAttachments_ImageIsAlsoFile(t *testing.T) {
	m := Message{Content: ClassifyAttachments("", []string{"photo.jpg"})}
	if m.Kind() != KindImage {
		t.Fatalf("expected image kind, got %q", m.Kind())
	}
	if m.ImageURL() != "photo.jpg" || m.FileURL() != "photo.jpg" {
		t.Fatalf("expected imageUrl=fileUrl=photo.jpg, got %q/%q", m.ImageURL(), m.FileURL())
	}
}

func TestClassifyAttachments_FirstImageWins(t *testing.T) {
	c := ClassifyAttachments("report", []string{"doc.pdf", "https://cdn/x/pic.PNG?w=10"})
	img, ok := c.(Image)
	if !ok {
		t.Fatalf("expected Image, got %T", c)
	}
	if img.URL != "https://cdn/x/pic.PNG?w=10" || img.Caption != "report" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestClassifyAttachments_FileOnly(t *testing.T) {
	m := Message{Content: ClassifyAttachments("see", []string{" ", "doc.pdf", "notes.txt"})}
	if m.Kind() != KindFile {
		t.Fatalf("expected file kind, got %q", m.Kind())
	}
	if m.ImageURL() != "" || m.FileURL() != "doc.pdf" {
		t.Fatalf("unexpected urls: %q/%q", m.ImageURL(), m.FileURL())
	}
}

func TestMessageKind_Forwarded(t *testing.T) {
	m := Message{Content: Text{Body: "hi"}, IsShared: true}
	if m.Kind() != KindForwarded {
		t.Fatalf("expected forwarded, got %q", m.Kind())
	}
	if m.Text() != "hi" {
		t.Fatalf("text lost: %q", m.Text())
	}
}

func TestWithText_StickerNotEditable(t *testing.T) {
	if _, ok := WithText(Sticker{URL: "/stickers/cat.webp"}, "x"); ok {
		t.Fatalf("sticker must not accept text")
	}
	c, ok := WithText(File{URL: "a.zip", Caption: "old"}, "new")
	if !ok || c.(File).Caption != "new" || c.(File).URL != "a.zip" {
		t.Fatalf("unexpected edit result: %+v ok=%v", c, ok)
	}
}

func TestAuthor_Exclusive(t *testing.T) {
	if !UserAuthor(1).Valid() || !BotAuthor("quiz").Valid() {
		t.Fatalf("single author must be valid")
	}
	uid := UserID(1)
	bot := BotID("quiz")
	if (Author{UserID: &uid, BotID: &bot}).Valid() {
		t.Fatalf("user+bot author must be invalid")
	}
	if (Author{}).Valid() {
		t.Fatalf("empty author must be invalid")
	}
}

func TestPermissions(t *testing.T) {
	channel := &Chat{Kind: ChatGroup, IsChannel: true}
	group := &Chat{Kind: ChatGroup}
	private := &Chat{Kind: ChatPrivate}

	if CanWrite(channel, RoleMember) {
		t.Fatalf("member must not write to channel")
	}
	if !CanWrite(channel, RoleAdmin) || !CanWrite(group, RoleMember) {
		t.Fatalf("unexpected write denial")
	}
	if CanPin(group, RoleMember) || !CanPin(group, RoleOwner) || !CanPin(private, RoleMember) {
		t.Fatalf("unexpected pin permissions")
	}
}
