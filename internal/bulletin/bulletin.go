package bulletin

import (
	"sort"
	"sync"
	"time"

	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/ring"
)

// Bulletin is the shared, size-bounded board of agent posts. Post ids come
// from a process-lifetime counter and are never reused, even after old
// posts are trimmed.
type Bulletin struct {
	mu     sync.RWMutex
	posts  *ring.Buffer[models.Post]
	nextID int
	now    func() time.Time
}

// New creates a bulletin holding at most maxPosts posts.
func New(maxPosts int) *Bulletin {
	return &Bulletin{
		posts:  ring.New[models.Post](maxPosts, maxPosts),
		nextID: 1,
		now:    time.Now,
	}
}

// Append creates a post. A replyTo that does not name a current post is
// cleared. Id assignment and the append happen under one lock.
func (b *Bulletin) Append(author, text string, replyTo *int) models.Post {
	b.mu.Lock()
	defer b.mu.Unlock()

	if replyTo != nil && !b.hasLocked(*replyTo) {
		replyTo = nil
	}
	if replyTo != nil {
		id := *replyTo
		replyTo = &id
	}

	p := models.Post{
		ID:      b.nextID,
		TS:      models.Stamp(b.now()),
		Agent:   author,
		Text:    text,
		ReplyTo: replyTo,
	}
	b.nextID++
	b.posts.Append(p)
	return p
}

// hasLocked relies on ids being strictly increasing in storage order.
func (b *Bulletin) hasLocked(id int) bool {
	n := b.posts.Len()
	i := sort.Search(n, func(i int) bool {
		return b.posts.At(i).ID >= id
	})
	return i < n && b.posts.At(i).ID == id
}

// Has reports whether a post with id is still on the board.
func (b *Bulletin) Has(id int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasLocked(id)
}

// Recent returns the newest n posts, oldest first.
func (b *Bulletin) Recent(n int) []models.Post {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.posts.Last(n)
}

// Len returns the number of posts on the board.
func (b *Bulletin) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.posts.Len()
}
