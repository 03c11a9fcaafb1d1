package service

import "github.com/vadim/comments-fetcher/internal/domain/comment/entity"

// Flatten returns every video's top-level comments in video order,
// keeping the per-video order.
func Flatten(videos []entity.Video) []entity.Comment {
	n := 0
	for _, v := range videos {
		n += len(v.Comments)
	}

	out := make([]entity.Comment, 0, n)
	for _, v := range videos {
		out = append(out, v.Comments...)
	}
	return out
}

// Replies returns the replies of every comment
func Replies(comments []entity.Comment) []entity.Comment {
	n := 0
	for _, c := range comments {
		n += len(c.Replies)
	}

	out := make([]entity.Comment, 0, n)
	for _, c := range comments {
		out = append(out, c.Replies...)
	}
	return out
}

// Activity returns comments and replies together. Each comment is emitted
// right after its own replies.
func Activity(comments []entity.Comment) []entity.Comment {
	n := len(comments)
	for _, c := range comments {
		n += len(c.Replies)
	}

	out := make([]entity.Comment, 0, n)
	for _, c := range comments {
		out = append(out, c.Replies...)
		out = append(out, c)
	}
	return out
}
