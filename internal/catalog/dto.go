package catalog

// ===== Requests =====

type CreateBookRequest struct {
	Title         string `json:"title" binding:"required,max=200"`
	Author        string `json:"author" binding:"required,max=100"`
	ISBN          string `json:"isbn" binding:"required,max=20"`
	PublishedYear int    `json:"published_year"`
	Genre         string `json:"genre" binding:"max=50"`
	TotalCopies   int    `json:"total_copies"`
	// available_copies is not accepted on create: all copies start available
}

// ISBN is immutable after creation, so it is not part of the update request.
type UpdateBookRequest struct {
	Title           string `json:"title" binding:"required,max=200"`
	Author          string `json:"author" binding:"required,max=100"`
	PublishedYear   int    `json:"published_year"`
	Genre           string `json:"genre" binding:"max=50"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// ===== Responses =====

type BookResponse struct {
	BookID          int64  `json:"book_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublishedYear   int    `json:"published_year"`
	Genre           string `json:"genre"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}
