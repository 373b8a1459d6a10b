package profile

// Reaction holds the user's reaction flags for one post.
// Both false means the post was downvoted.
type Reaction struct {
	Favorited bool `json:"favorited"`
	Upvoted   bool `json:"upvoted"`
}

// factorTable holds the (positive, negative) training weights indexed by
// favorited<<1 | upvoted
var factorTable = [4][2]uint32{
	{0, 2}, // downvote
	{1, 0}, // upvote
	{2, 0}, // favorite
	{3, 0}, // favorite and upvote
}

// Factor returns the (positive, negative) training weights of the reaction
func (r Reaction) Factor() (pos, neg uint32) {
	i := 0
	if r.Favorited {
		i |= 2
	}
	if r.Upvoted {
		i |= 1
	}
	return factorTable[i][0], factorTable[i][1]
}

// Merge ORs the flags of another sighting into r
func (r Reaction) Merge(other Reaction) Reaction {
	return Reaction{
		Favorited: r.Favorited || other.Favorited,
		Upvoted:   r.Upvoted || other.Upvoted,
	}
}

// String names the reaction for reports
func (r Reaction) String() string {
	switch {
	case r.Favorited && r.Upvoted:
		return "favorite+upvote"
	case r.Favorited:
		return "favorite"
	case r.Upvoted:
		return "upvote"
	default:
		return "downvote"
	}
}

// ReactedPost is a post the user reacted to, with its tags as vocabulary ids
type ReactedPost struct {
	PostID   uint32   `json:"post_id"`
	Reaction Reaction `json:"reaction"`
	Tags     []uint32 `json:"tags"`
}

// ReactionStore is the user's reaction history, unique by post id
type ReactionStore struct {
	posts []ReactedPost
	index map[uint32]int // post id -> position in posts
}

// NewReactionStore creates an empty store
func NewReactionStore() *ReactionStore {
	return &ReactionStore{index: make(map[uint32]int)}
}

// Push adds a post or, if the id is already stored, merges its reaction
// flags into the existing record. The stored tag list is kept as first seen.
func (s *ReactionStore) Push(p ReactedPost) {
	if i, ok := s.index[p.PostID]; ok {
		s.posts[i].Reaction = s.posts[i].Reaction.Merge(p.Reaction)
		return
	}
	s.index[p.PostID] = len(s.posts)
	s.posts = append(s.posts, p)
}

// Get returns the stored record for a post id
func (s *ReactionStore) Get(postID uint32) (ReactedPost, bool) {
	i, ok := s.index[postID]
	if !ok {
		return ReactedPost{}, false
	}
	return s.posts[i], true
}

// Contains reports whether the user reacted to the post
func (s *ReactionStore) Contains(postID uint32) bool {
	_, ok := s.index[postID]
	return ok
}

// Len returns the number of stored posts
func (s *ReactionStore) Len() int {
	return len(s.posts)
}

// Posts returns the stored records in insertion order.
// The slice is shared with the store and must not be modified.
func (s *ReactionStore) Posts() []ReactedPost {
	return s.posts
}

// Counts returns the number of stored posts per reaction kind
func (s *ReactionStore) Counts() map[Reaction]int {
	counts := make(map[Reaction]int, 4)
	for _, p := range s.posts {
		counts[p.Reaction]++
	}
	return counts
}
