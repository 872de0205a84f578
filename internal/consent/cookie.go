package consent

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// MaxAge keeps the consent cookie for a year.
const MaxAge = 365 * 24 * time.Hour

// Store reads and writes the consent cookie for one consent version.
type Store struct {
	Version string
	Secure  bool
	now     func() time.Time
}

func NewStore(version string, secure bool) *Store {
	if version == "" {
		version = DefaultVersion
	}
	return &Store{Version: version, Secure: secure, now: time.Now}
}

// Read returns the stored record for the current version, if any.
func (s *Store) Read(c *fiber.Ctx) (*Record, State) {
	r, ok := Decode(c.Cookies(CookieName), s.Version)
	if !ok {
		return nil, State{}
	}
	return r, StateOf(r)
}

func (s *Store) AcceptAll(c *fiber.Ctx) (State, error) {
	return s.write(c, AcceptAll(s.Version, s.now()))
}

func (s *Store) DeclineAll(c *fiber.Ctx) (State, error) {
	return s.write(c, DeclineAll(s.Version, s.now()))
}

func (s *Store) Save(c *fiber.Ctx, choice Choice) (State, error) {
	return s.write(c, FromChoice(choice, s.Version, s.now()))
}

// Reset forgets the stored choice.
func (s *Store) Reset(c *fiber.Ctx) State {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return State{}
}

func (s *Store) write(c *fiber.Ctx, r Record) (State, error) {
	v, err := Encode(r)
	if err != nil {
		return State{}, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		Expires:  r.Timestamp.Add(MaxAge),
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return StateOf(&r), nil
}
