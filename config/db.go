package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"resort-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// SeedDatabase fills in the baseline records a fresh install needs: a default
// admin, the two resorts with their units, and the refund ladder.
func SeedDatabase() {
	// ---------------- Admins ----------------
	var adminCount int64
	DB.Model(&models.Admin{}).Count(&adminCount)
	if adminCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default admin password: %v", err)
		} else {
			admin := models.Admin{
				FullName: "Admin User",
				Username: "admin@resort.local",
				Password: string(hash),
			}
			if err := DB.Create(&admin).Error; err != nil {
				log.Printf("warning: failed to create default admin: %v", err)
			} else {
				log.Println("Default admin seeded")
			}
		}
	}

	// ---------------- Resorts + Units ----------------
	var resortCount int64
	DB.Model(&models.Resort{}).Count(&resortCount)
	if resortCount == 0 {
		resorts := []models.Resort{
			{Name: "Vanavihari, Maredumilli", Code: "VM"},
			{Name: "Jungle Star, Valamuru", Code: "JS"},
		}
		if err := DB.Create(&resorts).Error; err != nil {
			log.Printf("warning: failed to seed resorts: %v", err)
		} else {
			units := []models.Unit{
				{ResortID: resorts[0].ID, Kind: models.UnitKindRoom, Number: "W-01", Name: "Woodpecker", Rate: 2000, MaxOccupancy: 2, Enabled: true},
				{ResortID: resorts[0].ID, Kind: models.UnitKindRoom, Number: "W-02", Name: "Hornbill", Rate: 2000, MaxOccupancy: 2, Enabled: true},
				{ResortID: resorts[0].ID, Kind: models.UnitKindRoom, Number: "W-03", Name: "Kingfisher", Rate: 2500, MaxOccupancy: 3, Enabled: true},
				{ResortID: resorts[1].ID, Kind: models.UnitKindTent, Number: "T-01", Name: "Riverside Tent 1", Rate: 1500, MaxOccupancy: 2, Enabled: true},
				{ResortID: resorts[1].ID, Kind: models.UnitKindTent, Number: "T-02", Name: "Riverside Tent 2", Rate: 1500, MaxOccupancy: 2, Enabled: true},
			}
			if err := DB.Create(&units).Error; err != nil {
				log.Printf("warning: failed to seed units: %v", err)
			} else {
				log.Println("Resorts and units seeded")
			}
		}
	}

	// ---------------- Refund policy ladder ----------------
	var policyCount int64
	DB.Model(&models.RefundPolicy{}).Count(&policyCount)
	if policyCount == 0 {
		policies := []models.RefundPolicy{
			{DaysBefore: 7, Percent: 100},
			{DaysBefore: 3, Percent: 50},
			{DaysBefore: 1, Percent: 25},
			{DaysBefore: 0, Percent: 0},
		}
		if err := DB.Create(&policies).Error; err != nil {
			log.Printf("warning: failed to seed refund policies: %v", err)
		} else {
			log.Println("Refund policies seeded")
		}
	}
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "resort_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.Admin{},
		&models.Resort{},
		&models.Unit{},
		&models.RefundPolicy{},
		&models.Reservation{},
		&models.ReservationUnit{},
		&models.PaymentTransaction{},
		&models.WebhookEvent{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}
