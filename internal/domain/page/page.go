package page

import "errors"

// Active flag values stored in the database.
const (
	ActiveYes = "yes"
	ActiveNo  = "no"
)

type Page struct {
	PageID        int    `json:"pageId"`
	Path          string `json:"path"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content,omitempty"`
	CategoryID    int    `json:"categoryId,omitempty"`
	CategoryName  string `json:"categoryName,omitempty"`
	PublishedDate string `json:"publishedDate"`
	Active        string `json:"active"`
}

// Summary is the listing shape: no body content, no category join.
type Summary struct {
	PageID        int    `json:"pageId"`
	Path          string `json:"path"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PublishedDate string `json:"publishedDate"`
	Active        string `json:"active"`
}

var ErrNotFound = errors.New("page not found")

type CreatePageRequest struct {
	Path          string `json:"path" binding:"required,max=255"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description" binding:"required,max=500"`
	Content       string `json:"content" binding:"required"`
	SetActive     string `json:"setActive" binding:"required,oneof=yes no"`
	CategoryID    int    `json:"categoryId" binding:"required,min=1"`
	PublishedDate string `json:"publishedDate" binding:"required,datetime=2006-01-02"`
}

// A full replacement payload, same shape as create.
type UpdatePageRequest struct {
	Path          string `json:"path" binding:"required,max=255"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description" binding:"required,max=500"`
	Content       string `json:"content" binding:"required"`
	SetActive     string `json:"setActive" binding:"required,oneof=yes no"`
	CategoryID    int    `json:"categoryId" binding:"required,min=1"`
	PublishedDate string `json:"publishedDate" binding:"required,datetime=2006-01-02"`
}
