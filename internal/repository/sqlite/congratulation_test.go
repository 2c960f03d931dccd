package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/acme/birthdays/internal/model"
)

func TestCreateCongratulation(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	birthday := createTestBirthday(t, db, author.ID, "Grace")

	c := &model.Congratulation{
		Text:       "Happy birthday!",
		AuthorID:   author.ID,
		BirthdayID: birthday.ID,
	}
	if err := db.CreateCongratulation(context.Background(), c); err != nil {
		t.Fatalf("CreateCongratulation() error = %v", err)
	}

	if c.ID == "" {
		t.Error("CreateCongratulation() did not set ID")
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreateCongratulation() did not set CreatedAt")
	}
}

func TestCreateCongratulation_MissingBirthdayRejected(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")

	c := &model.Congratulation{
		Text:       "Happy!",
		AuthorID:   author.ID,
		BirthdayID: "no-such-birthday",
	}
	if err := db.CreateCongratulation(context.Background(), c); err == nil {
		t.Error("CreateCongratulation() should fail the foreign key check")
	}
}

func TestListCongratulations_OrderAndAuthors(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	birthday := createTestBirthday(t, db, alice.ID, "Grace")

	ctx := context.Background()
	for i, tc := range []struct {
		text     string
		authorID string
	}{
		{"first!", bob.ID},
		{"happy birthday", alice.ID},
		{"many happy returns", bob.ID},
	} {
		c := &model.Congratulation{Text: tc.text, AuthorID: tc.authorID, BirthdayID: birthday.ID}
		if err := db.CreateCongratulation(ctx, c); err != nil {
			t.Fatalf("comment %d: %v", i, err)
		}
		// distinct CreatedAt values keep the ordering assertion meaningful
		time.Sleep(2 * time.Millisecond)
	}

	congrats, err := db.ListCongratulations(ctx, birthday.ID)
	if err != nil {
		t.Fatalf("ListCongratulations() error = %v", err)
	}
	if len(congrats) != 3 {
		t.Fatalf("len = %d, want 3", len(congrats))
	}

	wantTexts := []string{"first!", "happy birthday", "many happy returns"}
	for i, want := range wantTexts {
		if congrats[i].Text != want {
			t.Errorf("congrats[%d].Text = %q, want %q", i, congrats[i].Text, want)
		}
	}

	if congrats[0].Author == nil || congrats[0].Author.Login != "bob" {
		t.Errorf("author not eager-loaded: %+v", congrats[0].Author)
	}
	if congrats[1].Author == nil || congrats[1].Author.Login != "alice" {
		t.Errorf("author not eager-loaded: %+v", congrats[1].Author)
	}
}

func TestListCongratulations_EmptyThread(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	birthday := createTestBirthday(t, db, author.ID, "Grace")

	congrats, err := db.ListCongratulations(context.Background(), birthday.ID)
	if err != nil {
		t.Fatalf("ListCongratulations() error = %v", err)
	}
	if len(congrats) != 0 {
		t.Errorf("len = %d, want 0", len(congrats))
	}
}
