package auth

// Config holds account settings.
type Config struct {
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// AdminUsername and AdminPassword seed the admin account at startup.
	// Seeding is skipped when either is empty.
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}
