package service

import (
	"errors"
	"testing"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
)

func TestCreatePrivate_ReusesPair(t *testing.T) {
	f := newFixture(t)

	a, err := f.chats.CreatePrivate(f.ctx, user(1), 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := f.chats.CreatePrivate(f.ctx, user(2), 1)
	if err != nil {
		t.Fatalf("create reversed: %v", err)
	}
	if a.ID != b.ID || a.Kind != domain.ChatPrivate || a.MemberCount != 2 || a.Role != domain.RoleMember {
		t.Fatalf("unexpected private chats: %+v %+v", a, b)
	}
	if _, err := f.chats.CreatePrivate(f.ctx, user(1), 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("self chat must be rejected, got %v", err)
	}
}

func TestCreateGroup_Roles(t *testing.T) {
	f := newFixture(t)
	v, err := f.chats.CreateGroup(f.ctx, user(1), CreateGroupInput{Name: " team ", MemberIDs: []domain.UserID{2, 2, 1, 0, 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Name != "team" || v.Role != domain.RoleOwner || v.MemberCount != 3 {
		t.Fatalf("unexpected chat: %+v", v)
	}

	members, err := f.members.List(f.ctx, user(2), v.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	owners := 0
	for _, m := range members {
		if m.Role == domain.RoleOwner {
			owners++
		}
	}
	if owners != 1 {
		t.Fatalf("exactly one owner expected, got %d", owners)
	}
	if _, err := f.chats.CreateGroup(f.ctx, user(1), CreateGroupInput{Name: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty name must be rejected, got %v", err)
	}
}

func TestOwnerInvariants(t *testing.T) {
	f := newFixture(t)
	chat := f.group(t, 1, false, 2, 3)
	if err := f.members.ChangeRole(f.ctx, user(1), chat, 2, domain.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if err := f.members.Leave(f.ctx, user(1), chat); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("owner leave must fail, got %v", err)
	}
	if err := f.members.Remove(f.ctx, user(2), chat, 1); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("owner removal must fail, got %v", err)
	}
	if err := f.members.ChangeRole(f.ctx, user(1), chat, 1, domain.RoleMember); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("owner demotion must fail, got %v", err)
	}
	if err := f.members.ChangeRole(f.ctx, user(1), chat, 3, domain.RoleOwner); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("granting owner must fail, got %v", err)
	}
	if err := f.members.ChangeRole(f.ctx, user(2), chat, 3, domain.RoleAdmin); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("admin cannot change roles, got %v", err)
	}
	if err := f.members.ChangeRole(f.ctx, user(1), chat, 3, "KING"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown role must be rejected, got %v", err)
	}

	members, _ := f.members.List(f.ctx, user(1), chat)
	for _, m := range members {
		if m.UserID == 1 && m.Role != domain.RoleOwner {
			t.Fatalf("owner role changed: %+v", m)
		}
	}
}

func TestAddRemoveLeave(t *testing.T) {
	f := newFixture(t)
	chat := f.group(t, 1, false, 2)

	if _, err := f.members.Add(f.ctx, user(2), chat, []domain.UserID{5}); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("member cannot add, got %v", err)
	}
	added, err := f.members.Add(f.ctx, user(1), chat, []domain.UserID{2, 3, 4, 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(added) != 2 || added[0] != 3 || added[1] != 4 {
		t.Fatalf("expected [3 4] added, got %v", added)
	}

	if err := f.members.Remove(f.ctx, user(1), chat, 1); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("self removal must go through leave, got %v", err)
	}
	if err := f.members.Remove(f.ctx, user(1), chat, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
	if err := f.members.Remove(f.ctx, user(1), chat, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.members.Leave(f.ctx, user(4), chat); err != nil {
		t.Fatalf("leave: %v", err)
	}

	members, _ := f.members.List(f.ctx, user(1), chat)
	if len(members) != 2 {
		t.Fatalf("expected 2 members left, got %+v", members)
	}
	if _, err := f.members.List(f.ctx, user(4), chat); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("former member must lose access, got %v", err)
	}
}

func TestPrivateChatMembershipIsFixed(t *testing.T) {
	f := newFixture(t)
	chat, _ := f.chats.CreatePrivate(f.ctx, user(1), 2)

	if _, err := f.members.Add(f.ctx, user(1), chat.ID, []domain.UserID{3}); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("add to private must fail, got %v", err)
	}
	if err := f.members.Leave(f.ctx, user(1), chat.ID); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("leave private must fail, got %v", err)
	}
	if err := f.chats.Delete(f.ctx, user(1), chat.ID); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("private chat has no owner to delete it, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	open, _ := f.chats.CreateGroup(f.ctx, user(1), CreateGroupInput{Name: "open"})
	closed, _ := f.chats.CreateGroup(f.ctx, user(1), CreateGroupInput{Name: "closed", IsPrivate: true})

	v, err := f.chats.Join(f.ctx, user(5), open.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if v.Role != domain.RoleMember || v.MemberCount != 2 {
		t.Fatalf("unexpected join view: %+v", v)
	}
	if v, err = f.chats.Join(f.ctx, user(5), open.ID); err != nil || v.MemberCount != 2 {
		t.Fatalf("re-join must be a no-op: %+v err=%v", v, err)
	}
	if _, err := f.chats.Join(f.ctx, user(5), closed.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("closed chat must look missing, got %v", err)
	}
}

func TestDeleteChat(t *testing.T) {
	f := newFixture(t)
	chat := f.group(t, 1, false, 2)
	f.send(t, 2, chat, "x")

	if err := f.chats.Delete(f.ctx, user(2), chat); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("member delete must fail, got %v", err)
	}
	if err := f.chats.Delete(f.ctx, user(1), chat); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.chats.Get(f.ctx, user(1), chat); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted chat must be gone, got %v", err)
	}
	types := f.rec.Types()
	if types[len(types)-1] != events.ChatDeleted {
		t.Fatalf("expected chat.deleted event last, got %v", types)
	}
}

func TestListChats_OrderedByActivity(t *testing.T) {
	f := newFixture(t)
	a := f.group(t, 1, false)
	b := f.group(t, 1, false)
	f.send(t, 1, a, "bump")

	list, next, err := f.chats.List(f.ctx, user(1), 1, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != a || next == "" {
		t.Fatalf("most recently active chat first: %+v", list)
	}
	list, _, _ = f.chats.List(f.ctx, user(1), 1, next)
	if len(list) != 1 || list[0].ID != b {
		t.Fatalf("second page: %+v", list)
	}
	if _, _, err := f.chats.List(f.ctx, user(1), 1, "!!"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad cursor must be invalid input, got %v", err)
	}
}
