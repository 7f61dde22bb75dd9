package directory

import "time"

type Person struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DisplayInfo is what other areas attach to subject ids for presentation.
type DisplayInfo struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

type NewPerson struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required,max=120"`
	Department string `json:"department" validate:"max=120"`
	Role       string `json:"role" validate:"required,oneof=admin leader employee"`
	Password   string `json:"password" validate:"required,min=8"`
}

type Filter struct {
	Department string
	Role       string
	Limit      int
	Offset     int
}
