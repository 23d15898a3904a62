package model

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Profile holds the credential and profile columns shared by every
// account table.
type Profile struct {
	Name       string `gorm:"size:120" json:"name"`
	Email      string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string `json:"-"`
	Phone      string `gorm:"size:40" json:"phone"`
	AvatarUrl  string `json:"avatarUrl"`
	Provider   string `gorm:"size:20;not null;default:local" json:"provider"`
	ProviderID string `gorm:"size:255" json:"-"`
}

type User struct {
	DTO
	Profile
	Country string `gorm:"size:80" json:"country"`
}

type Writer struct {
	DTO
	Profile
	Category string  `gorm:"size:20;not null;default:standard" json:"category"`
	Bio      string  `gorm:"type:text" json:"bio"`
	Subjects string  `json:"subjects"`
	Rating   float64 `json:"rating"`
	Active   bool    `gorm:"not null;default:true" json:"active"`
}

type Administrator struct {
	DTO
	Profile
}

type SignUpInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	Country  string `json:"country" validate:"omitempty,max=80"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OAuthSignInInput accepts either an authorization code to exchange or an
// access token already obtained by the browser.
type OAuthSignInInput struct {
	Code        string `json:"code" validate:"required_without=AccessToken"`
	AccessToken string `json:"accessToken" validate:"required_without=Code"`
}

type CreateWriterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	Category string `json:"category" validate:"omitempty,oneof=standard advanced premium"`
	Bio      string `json:"bio" validate:"omitempty,max=2000"`
	Subjects string `json:"subjects" validate:"omitempty,max=500"`
}

type UpdateProfileInput struct {
	Name      string `json:"name" form:"name" validate:"omitempty,min=2,max=120"`
	Phone     string `json:"phone" form:"phone" validate:"omitempty,max=40"`
	Country   string `json:"country" form:"country" validate:"omitempty,max=80"`
	AvatarUrl string `json:"avatarUrl" form:"avatarUrl" validate:"omitempty,url"`
	Bio       string `json:"bio" form:"bio" validate:"omitempty,max=2000"`
}

// AccountView is the public shape of any account row.
type AccountView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	AvatarUrl string    `json:"avatarUrl"`
	Role      Role      `json:"role"`
	Provider  string    `json:"provider"`
	Country   string    `json:"country,omitempty"`
	Category  string    `json:"category,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Active    *bool     `json:"active,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) View() AccountView {
	return AccountView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarUrl: u.AvatarUrl,
		Role:      RoleClient,
		Provider:  u.Provider,
		Country:   u.Country,
		CreatedAt: u.CreatedAt,
	}
}

func (w *Writer) View() AccountView {
	active := w.Active
	return AccountView{
		ID:        w.ID.String(),
		Name:      w.Name,
		Email:     w.Email,
		Phone:     w.Phone,
		AvatarUrl: w.AvatarUrl,
		Role:      RoleWriter,
		Provider:  w.Provider,
		Category:  w.Category,
		Bio:       w.Bio,
		Active:    &active,
		CreatedAt: w.CreatedAt,
	}
}

func (a *Administrator) View() AccountView {
	return AccountView{
		ID:        a.ID.String(),
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		AvatarUrl: a.AvatarUrl,
		Role:      RoleAdmin,
		Provider:  a.Provider,
		CreatedAt: a.CreatedAt,
	}
}
