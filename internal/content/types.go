// Package content holds the typed rows behind every site section and the
// built-in defaults shown when a table is empty or unreachable.
package content

import "time"

// Row is implemented by every typed content row. Methods use value receivers
// so rows can be copied freely by editors and loaders.
type Row[R any] interface {
	RowID() string
	RowOrder() int
	WithOrder(order int) R
}

// Meta carries the columns shared by every table.
type Meta struct {
	ID           string     `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayOrder int        `json:"display_order" yaml:"display_order"`
	CreatedAt    *time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

func (m Meta) RowID() string { return m.ID }
func (m Meta) RowOrder() int { return m.DisplayOrder }

type HeroContent struct {
	Meta            `yaml:",inline"`
	Title           string `json:"title" yaml:"title"`
	Subtitle        string `json:"subtitle" yaml:"subtitle"`
	Description     string `json:"description" yaml:"description"`
	CTAText         string `json:"cta_text" yaml:"cta_text"`
	CTALink         string `json:"cta_link" yaml:"cta_link"`
	BackgroundImage string `json:"background_image" yaml:"background_image"`
	BackgroundColor string `json:"background_color,omitempty" yaml:"background_color"`
	TextColor       string `json:"text_color,omitempty" yaml:"text_color"`
	IsVisible       bool   `json:"is_visible" yaml:"is_visible"`
}

func (r HeroContent) WithOrder(o int) HeroContent { r.DisplayOrder = o; return r }

type Stat struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

type AboutContent struct {
	Meta        `yaml:",inline"`
	Title       string `json:"title" yaml:"title"`
	Subtitle    string `json:"subtitle" yaml:"subtitle"`
	Description string `json:"description" yaml:"description"`
	ImageURL    string `json:"image_url" yaml:"image_url"`
	Stats       []Stat `json:"stats" yaml:"stats"`
	IsVisible   bool   `json:"is_visible" yaml:"is_visible"`
}

func (r AboutContent) WithOrder(o int) AboutContent { r.DisplayOrder = o; return r }

type Service struct {
	Meta        `yaml:",inline"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Icon        string   `json:"icon" yaml:"icon"`
	ImageURL    string   `json:"image_url" yaml:"image_url"`
	Features    []string `json:"features" yaml:"features"`
	Color       string   `json:"color" yaml:"color"`
	IsVisible   bool     `json:"is_visible" yaml:"is_visible"`
}

func (r Service) WithOrder(o int) Service { r.DisplayOrder = o; return r }

type Project struct {
	Meta         `yaml:",inline"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	ImageURL     string   `json:"image_url" yaml:"image_url"`
	Category     string   `json:"category" yaml:"category"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	ProjectURL   string   `json:"project_url" yaml:"project_url"`
	Featured     bool     `json:"featured" yaml:"featured"`
	IsVisible    bool     `json:"is_visible" yaml:"is_visible"`
}

func (r Project) WithOrder(o int) Project { r.DisplayOrder = o; return r }

type TeamMember struct {
	Meta        `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	Role        string   `json:"role" yaml:"role"`
	Bio         string   `json:"bio" yaml:"bio"`
	ImageURL    string   `json:"image_url" yaml:"image_url"`
	Skills      []string `json:"skills" yaml:"skills"`
	LinkedinURL string   `json:"linkedin_url" yaml:"linkedin_url"`
	TwitterURL  string   `json:"twitter_url" yaml:"twitter_url"`
	Email       string   `json:"email" yaml:"email"`
	IsVisible   bool     `json:"is_visible" yaml:"is_visible"`
}

func (r TeamMember) WithOrder(o int) TeamMember { r.DisplayOrder = o; return r }

type Testimonial struct {
	Meta          `yaml:",inline"`
	ClientName    string `json:"client_name" yaml:"client_name"`
	ClientRole    string `json:"client_role" yaml:"client_role"`
	ClientCompany string `json:"client_company" yaml:"client_company"`
	Content       string `json:"content" yaml:"content"`
	Rating        int    `json:"rating,omitempty" yaml:"rating"`
	ImageURL      string `json:"image_url" yaml:"image_url"`
	IsVisible     bool   `json:"is_visible" yaml:"is_visible"`
}

func (r Testimonial) WithOrder(o int) Testimonial { r.DisplayOrder = o; return r }

type FooterContent struct {
	Meta          `yaml:",inline"`
	CompanyName   string `json:"company_name" yaml:"company_name"`
	Description   string `json:"description" yaml:"description"`
	Address       string `json:"address" yaml:"address"`
	Phone         string `json:"phone" yaml:"phone"`
	Email         string `json:"email" yaml:"email"`
	CopyrightText string `json:"copyright_text" yaml:"copyright_text"`
	IsVisible     bool   `json:"is_visible" yaml:"is_visible"`
}

func (r FooterContent) WithOrder(o int) FooterContent { r.DisplayOrder = o; return r }

type SocialLink struct {
	Meta      `yaml:",inline"`
	Platform  string `json:"platform" yaml:"platform"`
	URL       string `json:"url" yaml:"url"`
	Icon      string `json:"icon" yaml:"icon"`
	IsVisible bool   `json:"is_visible" yaml:"is_visible"`
}

func (r SocialLink) WithOrder(o int) SocialLink { r.DisplayOrder = o; return r }

type MenuItem struct {
	Meta      `yaml:",inline"`
	Label     string  `json:"label" yaml:"label"`
	URL       string  `json:"url" yaml:"url"`
	ParentID  *string `json:"parent_id" yaml:"parent_id,omitempty"`
	Target    string  `json:"target" yaml:"target"`
	IsVisible bool    `json:"is_visible" yaml:"is_visible"`

	// Children is filled when building the public menu tree; it is not a column.
	Children []MenuItem `json:"children,omitempty" yaml:"children,omitempty"`
}

func (r MenuItem) WithOrder(o int) MenuItem { r.DisplayOrder = o; return r }

type SiteSetting struct {
	Meta         `yaml:",inline"`
	SettingKey   string `json:"setting_key" yaml:"setting_key"`
	SettingValue string `json:"setting_value" yaml:"setting_value"`
	Category     string `json:"category" yaml:"category"`
	Description  string `json:"description" yaml:"description"`
	IsVisible    bool   `json:"is_visible" yaml:"is_visible"`
}

func (r SiteSetting) WithOrder(o int) SiteSetting { r.DisplayOrder = o; return r }

type Integration struct {
	Meta            `yaml:",inline"`
	Name            string         `json:"name" yaml:"name"`
	IntegrationType string         `json:"integration_type" yaml:"integration_type"`
	Config          map[string]any `json:"config" yaml:"config"`
	IsActive        bool           `json:"is_active" yaml:"is_active"`
}

func (r Integration) WithOrder(o int) Integration { r.DisplayOrder = o; return r }

// ConfigString returns a string value from the JSON config.
func (r Integration) ConfigString(key string) string {
	s, _ := r.Config[key].(string)
	return s
}

type CookieConsentSettings struct {
	Meta        `yaml:",inline"`
	Title       string `json:"title" yaml:"title"`
	Message     string `json:"message" yaml:"message"`
	AcceptText  string `json:"accept_text" yaml:"accept_text"`
	DeclineText string `json:"decline_text" yaml:"decline_text"`
	PolicyURL   string `json:"policy_url" yaml:"policy_url"`
	Version     string `json:"version" yaml:"version"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
}

func (r CookieConsentSettings) WithOrder(o int) CookieConsentSettings { r.DisplayOrder = o; return r }

type SMTPSettings struct {
	Meta      `yaml:",inline"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	FromEmail string `json:"from_email" yaml:"from_email"`
	FromName  string `json:"from_name" yaml:"from_name"`
	UseTLS    bool   `json:"use_tls" yaml:"use_tls"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
}

func (r SMTPSettings) WithOrder(o int) SMTPSettings { r.DisplayOrder = o; return r }

type EmailTemplate struct {
	Meta         `yaml:",inline"`
	Name         string `json:"name" yaml:"name"`
	Subject      string `json:"subject" yaml:"subject"`
	BodyHTML     string `json:"body_html" yaml:"body_html"`
	TemplateType string `json:"template_type" yaml:"template_type"`
	IsActive     bool   `json:"is_active" yaml:"is_active"`
}

func (r EmailTemplate) WithOrder(o int) EmailTemplate { r.DisplayOrder = o; return r }

type EmailRecipient struct {
	Meta          `yaml:",inline"`
	Email         string `json:"email" yaml:"email"`
	Name          string `json:"name" yaml:"name"`
	RecipientType string `json:"recipient_type" yaml:"recipient_type"`
	IsActive      bool   `json:"is_active" yaml:"is_active"`
}

func (r EmailRecipient) WithOrder(o int) EmailRecipient { r.DisplayOrder = o; return r }

// MediaItem is a media library entry. The table is not manually ordered.
type MediaItem struct {
	Meta         `yaml:",inline"`
	Filename     string `json:"filename" yaml:"filename"`
	URL          string `json:"url" yaml:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" yaml:"thumbnail_url"`
	FileType     string `json:"file_type" yaml:"file_type"`
	Size         int64  `json:"size" yaml:"size"`
	Category     string `json:"category" yaml:"category"`
	AltText      string `json:"alt_text" yaml:"alt_text"`
}

func (r MediaItem) WithOrder(int) MediaItem { return r }
