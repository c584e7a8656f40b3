package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public view of a user. The set of variants is closed:
// PersonProfile, ProProfile and AssoProfile.
type Profile interface {
	Kind() UserType
	profile()
}

type ProfileBase struct {
	ID         uuid.UUID `json:"id"`
	UserType   UserType  `json:"user_type"`
	Pseudo     string    `json:"pseudo"`
	AvatarURL  string    `json:"avatar_url"`
	City       string    `json:"city,omitempty"`
	IsVerified bool      `json:"is_verified"`
}

type PersonProfile struct {
	ProfileBase
	FirstName string `json:"first_name"`
	Age       *int   `json:"age,omitempty"`
	IsPremium bool   `json:"is_premium"`
}

type ProProfile struct {
	ProfileBase
	CompanyName string `json:"company_name"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
}

type AssoProfile struct {
	ProfileBase
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
}

func (PersonProfile) Kind() UserType { return UserTypePerson }
func (ProProfile) Kind() UserType    { return UserTypePro }
func (AssoProfile) Kind() UserType   { return UserTypeAsso }

func (PersonProfile) profile() {}
func (ProProfile) profile()    {}
func (AssoProfile) profile()   {}

// ProfileOf builds the variant matching u.UserType. Unknown types are shown
// as persons.
func ProfileOf(u *User, now time.Time) Profile {
	if u == nil {
		return nil
	}
	base := ProfileBase{
		ID:         u.ID,
		UserType:   u.UserType,
		Pseudo:     u.Pseudo,
		AvatarURL:  u.AvatarURL,
		City:       u.City,
		IsVerified: u.IsVerified,
	}
	switch u.UserType {
	case UserTypePro:
		return ProProfile{ProfileBase: base, CompanyName: u.CompanyName, Description: u.Description, Website: u.Website}
	case UserTypeAsso:
		return AssoProfile{ProfileBase: base, Name: u.CompanyName, Description: u.Description, Website: u.Website}
	default:
		base.UserType = UserTypePerson
		return PersonProfile{ProfileBase: base, FirstName: u.FirstName, Age: u.Age(now), IsPremium: u.IsPremium}
	}
}
