package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/auth"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/config"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/database"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed reference data (categories, channels) and the initial admin user",
	RunE:  runSeed,
}

var seedCategories = []string{
	"Медична допомога",
	"Адміністративні питання",
	"Скарги",
	"Подяки",
	"Благодійність",
	"Інше",
}

var seedChannels = []string{
	"Телефон",
	"Email",
	"Особисте звернення",
	"Сайт",
	"Соціальні мережі",
}

func runSeed(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	for _, name := range seedCategories {
		category := model.Category{Name: name, IsActive: true}
		if err := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&category).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	log.Printf("seed: %d categories ensured", len(seedCategories))

	for _, name := range seedChannels {
		channel := model.Channel{Name: name, IsActive: true}
		if err := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&channel).Error; err != nil {
			return fmt.Errorf("seed channel %q: %w", name, err)
		}
	}
	log.Printf("seed: %d channels ensured", len(seedChannels))

	return seedAdmin(conn)
}

// seedAdmin creates the bootstrap ADMIN account when none exists. Credentials
// come from ADMIN_USERNAME / ADMIN_EMAIL / ADMIN_PASSWORD.
func seedAdmin(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		log.Println("seed: admin user already exists, skipping")
		return nil
	}
	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || email == "" || password == "" {
		log.Println("seed: ADMIN_USERNAME/ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin")
		return nil
	}
	if err := auth.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := model.User{
		Username:     username,
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("seed: admin user %q created", username)
	return nil
}
