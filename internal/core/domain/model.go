package domain

import (
	"encoding/base64"
	"time"
)

type Message struct {
	ID               int
	ChatID           int64
	Username         string
	ReplyToMessageID *int
	ImageURL         string
	Text             string
}

// CompressionTarget is the dimension and byte budget a compressed photo should satisfy.
// Qualities are fractions in (0,1].
type CompressionTarget struct {
	MaxDimensionPx int
	MaxBytes       int
	InitialQuality float64
	QualityStep    float64
	MinQuality     float64
}

func DefaultCompressionTarget() CompressionTarget {
	return CompressionTarget{
		MaxDimensionPx: 1200,
		MaxBytes:       1 << 20,
		InitialQuality: 0.8,
		QualityStep:    0.1,
		MinQuality:     0.1,
	}
}

type EncodedImage struct {
	Data     []byte  `json:"data"`
	MIMEType string  `json:"mimeType"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Quality  float64 `json:"quality"`
	Attempts int     `json:"attempts"`
	// WithinBudget is false when even MinQuality could not get under MaxBytes.
	WithinBudget bool `json:"withinBudget"`
}

// DataURL returns the image as a base64 data URL, the form the membership API accepts.
func (e *EncodedImage) DataURL() string {
	return "data:" + e.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// ImageRef points at an image either by URL (http(s) or data:) or by raw encoded bytes.
type ImageRef struct {
	URL  string
	Data []byte
}

func (r ImageRef) IsZero() bool {
	return r.URL == "" && len(r.Data) == 0
}

func (r ImageRef) String() string {
	if r.URL != "" {
		if len(r.URL) > 64 {
			return r.URL[:64] + "..."
		}
		return r.URL
	}
	if len(r.Data) > 0 {
		return "<inline image>"
	}
	return "<none>"
}

type CardRenderSpec struct {
	BackgroundImage ImageRef
	ProfileImage    ImageRef
	DisplayName     string
	Birthday        *time.Time
	Phone           string
	Email           string
}

type RenderedCard struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

type CardDesign struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Tier     string `json:"tier"`
}

type Coupon struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image"`
	ExpiredAt   string `json:"expiredAt"`
}

type Membership struct {
	Name                string   `json:"name"`
	Email               string   `json:"email,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	Birthday            string   `json:"birthday,omitempty"`
	ProfileImage        string   `json:"profileImage"`
	CardImage           string   `json:"cardImage"`
	Serial              string   `json:"serial"`
	Point               int      `json:"point"`
	TierTitle           string   `json:"tierTitle"`
	IsEligibleForCoupon bool     `json:"isEligibleForCoupon"`
	Coupons             []Coupon `json:"coupons"`
}

type MembershipRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Birthday     string `json:"birthday"`
	ProfileImage string `json:"profileImage"`
	CardImage    string `json:"cardImage"`
}

// Registration is the serialisable state of one member's sign-up, keyed by chat.
type Registration struct {
	Name       string        `json:"name"`
	Phone      string        `json:"phone"`
	Email      string        `json:"email"`
	Birthday   string        `json:"birthday"`
	Photo      *EncodedImage `json:"photo,omitempty"`
	Design     *CardDesign   `json:"design,omitempty"`
	Membership *Membership   `json:"membership,omitempty"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type Action string

const (
	Typing         Action = "typing"
	SendingPhoto   Action = "sending_photo"
	UploadDocument Action = "upload_document"
)
