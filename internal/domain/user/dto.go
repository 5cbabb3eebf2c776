package user

type CreateUserRequest struct {
	FullName string   `json:"full_name" binding:"required,min=2,max=150"`
	Email    string   `json:"email" binding:"required,email"`
	Phone    string   `json:"phone" binding:"omitempty,max=30"`
	Category Category `json:"category" binding:"required,user_category"`
}

type UserListFilters struct {
	Category *Category `form:"category" binding:"omitempty,user_category"`
	Search   string    `form:"search"`
	Page     int       `form:"page" binding:"omitempty,min=1"`
	PageSize int       `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type UserListResponse struct {
	Users      []User `json:"users"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}
