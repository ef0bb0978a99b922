package models_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/testutil"
)

func TestPostString(t *testing.T) {
	p := models.Post{Text: "Lorem ipsum dolor sit amet"}
	if got := p.String(); got != "Lorem ipsum dol" {
		t.Errorf("String() = %q, want first %d characters", got, models.TextSlice)
	}
	short := models.Post{Text: "hi"}
	if short.String() != "hi" {
		t.Errorf("String() = %q, want hi", short.String())
	}
	cyr := models.Post{Text: strings.Repeat("ж", 20)}
	if got := []rune(cyr.String()); len(got) != models.TextSlice {
		t.Errorf("String() cut %d runes, want %d", len(got), models.TextSlice)
	}
}

func TestGroupString(t *testing.T) {
	if got := (models.Group{Title: "Cats"}).String(); got != "Cats" {
		t.Errorf("String() = %q", got)
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		user models.User
		want string
	}{
		{models.User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}, "Leo Tolstoy"},
		{models.User{Username: "leo", FirstName: "Leo"}, "Leo"},
		{models.User{Username: "leo"}, "leo"},
	}
	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewGroup(t *testing.T) {
	if _, err := models.NewGroup("Cats", "cats_1", ""); err != nil {
		t.Errorf("valid group: %v", err)
	}
	if _, err := models.NewGroup(" ", "cats", ""); !errors.Is(err, models.ErrGroupTitle) {
		t.Errorf("blank title: got %v", err)
	}
	if _, err := models.NewGroup("Cats", "no spaces", ""); !errors.Is(err, models.ErrGroupSlug) {
		t.Errorf("bad slug: got %v", err)
	}
	if _, err := models.NewGroup("Cats", strings.Repeat("a", 51), ""); !errors.Is(err, models.ErrGroupSlug) {
		t.Errorf("long slug: got %v", err)
	}
}

func TestDeleteGroup_KeepsPosts(t *testing.T) {
	env := testutil.Setup(t)
	author := testutil.CreateUser(t, env.DB, "leo")
	group := testutil.CreateGroup(t, env.DB, "Cats")
	post := testutil.CreatePost(t, env.DB, author, group, "about cats")

	if err := env.DB.Delete(group).Error; err != nil {
		t.Fatalf("delete group: %v", err)
	}
	var reloaded models.Post
	if err := env.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("post gone after group delete: %v", err)
	}
	if reloaded.GroupID != nil {
		t.Errorf("GroupID: got %d, want nil", *reloaded.GroupID)
	}
}

func TestDeletePost_RemovesComments(t *testing.T) {
	env := testutil.Setup(t)
	author := testutil.CreateUser(t, env.DB, "leo")
	post := testutil.CreatePost(t, env.DB, author, nil, "text")
	other := testutil.CreatePost(t, env.DB, author, nil, "other")
	for _, pid := range []uint{post.ID, post.ID, other.ID} {
		c := models.Comment{PostID: pid, AuthorID: author.ID, Text: "comment"}
		if err := env.DB.Omit("Author").Create(&c).Error; err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	if err := env.DB.Delete(post).Error; err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if n := testutil.Count(t, env.DB, &models.Comment{}, "post_id = ?", post.ID); n != 0 {
		t.Errorf("comments of deleted post: got %d, want 0", n)
	}
	if n := testutil.Count(t, env.DB, &models.Comment{}, "post_id = ?", other.ID); n != 1 {
		t.Errorf("comments of other post: got %d, want 1", n)
	}
}

func TestDeleteUser_RemovesOwnedRows(t *testing.T) {
	env := testutil.Setup(t)
	leo := testutil.CreateUser(t, env.DB, "leo")
	ann := testutil.CreateUser(t, env.DB, "ann")
	leoPost := testutil.CreatePost(t, env.DB, leo, nil, "leo writes")
	annPost := testutil.CreatePost(t, env.DB, ann, nil, "ann writes")

	rows := []interface{}{
		&models.Comment{PostID: leoPost.ID, AuthorID: ann.ID, Text: "ann on leo"},
		&models.Comment{PostID: annPost.ID, AuthorID: leo.ID, Text: "leo on ann"},
		&models.Comment{PostID: annPost.ID, AuthorID: ann.ID, Text: "ann on ann"},
		&models.Follow{UserID: leo.ID, AuthorID: ann.ID},
		&models.Follow{UserID: ann.ID, AuthorID: leo.ID},
	}
	for _, row := range rows {
		if err := env.DB.Omit("Author", "User").Create(row).Error; err != nil {
			t.Fatalf("create %T: %v", row, err)
		}
	}

	if err := env.DB.Delete(leo).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if n := testutil.Count(t, env.DB, &models.Post{}); n != 1 {
		t.Errorf("posts left: %d, want 1", n)
	}
	if n := testutil.Count(t, env.DB, &models.Comment{}); n != 1 {
		t.Errorf("comments left: %d, want 1 (ann on ann)", n)
	}
	if n := testutil.Count(t, env.DB, &models.Follow{}); n != 0 {
		t.Errorf("follows left: %d, want 0", n)
	}
}

func TestFollow_UniquePair(t *testing.T) {
	env := testutil.Setup(t)
	leo := testutil.CreateUser(t, env.DB, "leo")
	ann := testutil.CreateUser(t, env.DB, "ann")

	if err := env.DB.Omit("User", "Author").Create(&models.Follow{UserID: leo.ID, AuthorID: ann.ID}).Error; err != nil {
		t.Fatalf("first follow: %v", err)
	}
	if err := env.DB.Omit("User", "Author").Create(&models.Follow{UserID: leo.ID, AuthorID: ann.ID}).Error; err == nil {
		t.Error("expected duplicate follow to violate the unique index")
	}
}

func TestPostImageURL(t *testing.T) {
	env := testutil.Setup(t)
	author := testutil.CreateUser(t, env.DB, "leo")
	post := &models.Post{Text: "pic", AuthorID: author.ID, Image: "posts/a.gif"}
	if err := env.DB.Omit("Author", "Group", "Comments").Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	var reloaded models.Post
	if err := env.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if reloaded.ImageURL != "/media/posts/a.gif" {
		t.Errorf("ImageURL: got %q", reloaded.ImageURL)
	}
	if reloaded.PubDate.IsZero() {
		t.Error("PubDate not stamped")
	}
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{"1 < 2", "1 &lt; 2"},
		{"<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"one\ntwo\r\nthree", "one<br>two<br>three"},
	}
	for _, tt := range tests {
		if got := models.RenderText(tt.in); got != tt.want {
			t.Errorf("RenderText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPostText_RoundTrip(t *testing.T) {
	env := testutil.Setup(t)
	post := testutil.CreatePost(t, env.DB, testutil.CreateUser(t, env.DB, "leo"), nil, "Tom & Jerry")

	var reloaded models.Post
	if err := env.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if reloaded.Text != "Tom & Jerry" {
		t.Errorf("Text: got %q, want it unchanged", reloaded.Text)
	}
	if reloaded.TextHTML != "Tom &amp; Jerry" {
		t.Errorf("TextHTML: got %q", reloaded.TextHTML)
	}
}
