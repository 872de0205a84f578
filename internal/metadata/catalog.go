package metadata

import "log"

// Entity names. They double as table names.
const (
	HeroContent           = "hero_content"
	AboutContent          = "about_content"
	Services              = "services"
	Projects              = "projects"
	TeamMembers           = "team_members"
	Testimonials          = "testimonials"
	FooterContent         = "footer_content"
	SocialMediaLinks      = "social_media_links"
	MenuItems             = "menu_items"
	SiteSettings          = "site_settings"
	SiteIntegrations      = "site_integrations"
	CookieConsentSettings = "cookie_consent_settings"
	SMTPSettings          = "smtp_settings"
	EmailTemplates        = "email_templates"
	EmailRecipients       = "email_recipients"
	MediaLibrary          = "media_library"
	AdminUsers            = "admin_users"
)

func str(name string) Field      { return Field{Name: name, Type: "string", Nullable: true} }
func text(name string) Field     { return Field{Name: name, Type: "text", Nullable: true} }
func required(name string) Field { return Field{Name: name, Type: "string", Required: true} }
func jsonField(name string) Field {
	return Field{Name: name, Type: "json", Nullable: true}
}
func boolField(name string, def bool) Field {
	return Field{Name: name, Type: "boolean", Default: def}
}
func intField(name string) Field { return Field{Name: name, Type: "int", Nullable: true} }

func baseFields() []Field {
	return []Field{{Name: "id", Type: "uuid"}}
}

func timestamps() []Field {
	return []Field{
		{Name: "created_at", Type: "timestamp", Auto: "create"},
		{Name: "updated_at", Type: "timestamp", Auto: "update"},
	}
}

func newEntity(name string, ordered bool, visibility string, fields ...Field) *Entity {
	all := baseFields()
	all = append(all, fields...)
	if ordered {
		all = append(all, Field{Name: OrderField, Type: "int", Default: 0})
	}
	if visibility == VisibleField {
		all = append(all, boolField(VisibleField, true))
	}
	all = append(all, timestamps()...)
	return &Entity{
		Name:       name,
		Table:      name,
		PrimaryKey: PrimaryKey{Field: "id", Type: "uuid", Generated: true},
		Fields:     all,
		Visibility: visibility,
		Ordered:    ordered,
	}
}

// contentEntity is a public section table: ordered, with an is_visible flag.
func contentEntity(name string, fields ...Field) *Entity {
	return newEntity(name, true, VisibleField, fields...)
}

// configEntity is a settings table toggled by is_active. The flag is part of
// fields so it keeps its declared position.
func configEntity(name string, fields ...Field) *Entity {
	e := newEntity(name, true, ActiveField, append(fields, boolField(ActiveField, true))...)
	e.Scopes = []string{ActiveField}
	return e
}

// Catalog returns every table the site reads and the admin edits.
func Catalog() []*Entity {
	menu := contentEntity(MenuItems,
		required("label"), str("url"), Field{Name: "parent_id", Type: "uuid", Nullable: true}, str("target"))
	menu.Scopes = []string{"parent_id"}

	settings := contentEntity(SiteSettings,
		required("setting_key"), text("setting_value"), str("category"), text("description"))
	settings.Scopes = []string{"category"}

	media := newEntity(MediaLibrary, false, "",
		required("filename"), required("url"), str("thumbnail_url"), str("file_type"),
		Field{Name: "size", Type: "bigint", Nullable: true}, str("category"), str("alt_text"))
	media.Scopes = []string{"category"}

	smtp := configEntity(SMTPSettings,
		str("host"), intField("port"), str("username"), str("password"), str("from_email"), str("from_name"),
		boolField("use_tls", true))
	smtp.Private = true

	users := newEntity(AdminUsers, false, "", Field{Name: "username", Type: "string", Required: true})
	users.Private = true

	return []*Entity{
		contentEntity(HeroContent,
			str("title"), str("subtitle"), text("description"), str("cta_text"), str("cta_link"),
			str("background_image"), str("background_color"), str("text_color")),
		contentEntity(AboutContent,
			str("title"), str("subtitle"), text("description"), str("image_url"), jsonField("stats")),
		contentEntity(Services,
			required("title"), text("description"), str("icon"), str("image_url"), jsonField("features"), str("color")),
		contentEntity(Projects,
			required("title"), text("description"), str("image_url"), str("category"),
			jsonField("technologies"), str("project_url"), boolField("featured", false)),
		contentEntity(TeamMembers,
			required("name"), str("role"), text("bio"), str("image_url"), jsonField("skills"),
			str("linkedin_url"), str("twitter_url"), str("email")),
		contentEntity(Testimonials,
			required("client_name"), str("client_role"), str("client_company"), text("content"),
			intField("rating"), str("image_url")),
		contentEntity(FooterContent,
			str("company_name"), text("description"), str("address"), str("phone"), str("email"), str("copyright_text")),
		contentEntity(SocialMediaLinks,
			required("platform"), required("url"), str("icon")),
		menu,
		settings,
		configEntity(SiteIntegrations,
			required("name"), required("integration_type"), jsonField("config")),
		configEntity(CookieConsentSettings,
			str("title"), text("message"), str("accept_text"), str("decline_text"), str("policy_url"), str("version")),
		smtp,
		configEntity(EmailTemplates,
			required("name"), str("subject"), text("body_html"), str("template_type")),
		configEntity(EmailRecipients,
			required("email"), str("name"), str("recipient_type")),
		media,
		users,
	}
}

// CatalogRules returns the validation rules applied before every write.
func CatalogRules() []*Rule {
	fieldRule := func(id, entity, field, op string, value any, msg string) *Rule {
		return &Rule{
			ID: id, Entity: entity, Hook: HookBeforeWrite, Type: "field", Active: true,
			Definition: RuleDefinition{Field: field, Operator: op, Value: value, Message: msg},
		}
	}
	exprRule := func(id, entity, expression, msg string) *Rule {
		return &Rule{
			ID: id, Entity: entity, Hook: HookBeforeWrite, Type: "expression", Active: true, Priority: 10,
			Definition: RuleDefinition{Expression: expression, Message: msg},
		}
	}

	const hexColor = `^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`
	const httpURL = `^(https?://|/|#|mailto:|tel:)`
	const email = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

	return []*Rule{
		fieldRule("testimonial-rating-min", Testimonials, "rating", "min", float64(1), "Rating must be between 1 and 5"),
		fieldRule("testimonial-rating-max", Testimonials, "rating", "max", float64(5), "Rating must be between 1 and 5"),
		fieldRule("social-url", SocialMediaLinks, "url", "pattern", httpURL, "Link must be an absolute or site-relative URL"),
		fieldRule("menu-label", MenuItems, "label", "max_length", float64(60), "Menu label is too long"),
		fieldRule("recipient-email", EmailRecipients, "email", "pattern", email, "Invalid email address"),
		fieldRule("smtp-port-min", SMTPSettings, "port", "min", float64(1), "Port must be between 1 and 65535"),
		fieldRule("smtp-port-max", SMTPSettings, "port", "max", float64(65535), "Port must be between 1 and 65535"),
		fieldRule("hero-background", HeroContent, "background_color", "pattern", hexColor, "Background color must be a hex value"),
		fieldRule("hero-text", HeroContent, "text_color", "pattern", hexColor, "Text color must be a hex value"),
		exprRule("color-setting", SiteSettings,
			`record.category == "colors" && record.setting_value != nil && !(record.setting_value matches "`+hexColor+`")`,
			"Color settings must be hex values"),
		exprRule("menu-self-parent", MenuItems,
			`record.id != nil && record.parent_id != nil && record.parent_id == record.id`,
			"A menu item cannot be its own parent"),
	}
}

// LoadCatalog fills the registry with the built-in catalogue.
func LoadCatalog(reg *Registry) {
	entities := Catalog()
	rules := CatalogRules()
	reg.Load(entities, rules)
	log.Printf("Loaded %d entities, %d rules into registry", len(entities), len(rules))
}
