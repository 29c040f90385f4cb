package comments_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func TestCommentsWithBunStorage(t *testing.T) {
	db, err := testsupport.NewBunDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	ctx := context.Background()
	if err := testsupport.CreateTables(ctx, db, (*comments.Comment)(nil)); err != nil {
		t.Fatalf("%v", err)
	}

	fx := newFixture(t, comments.NewBunCommentRepository(db))
	guest := auth.Guest("guest-7")

	created, err := fx.svc.Create(ctx, comments.CreateRequest{PostID: fx.open.ID, Content: "stored", Name: "Reader", GuestID: guest.GuestID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.svc.Update(ctx, guest, created.ID, "stored again"); err != nil {
		t.Fatalf("update: %v", err)
	}

	views, err := fx.svc.ListForPost(ctx, guest, fx.open.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].MarkdownContent != "stored again" || !views[0].CanEdit {
		t.Fatalf("unexpected stored comments %+v", views)
	}

	if err := fx.svc.Delete(ctx, guest, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	views, err = fx.svc.ListForPost(ctx, guest, fx.open.ID)
	if err != nil || len(views) != 0 {
		t.Fatalf("expected no comments after delete, got %d (%v)", len(views), err)
	}
}
