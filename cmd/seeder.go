package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample departments and users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"message_deletions", "messages", "conversations", "users", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		departments := []struct {
			ID   string
			Name string
		}{
			{uuid.NewString(), "Engineering"},
			{uuid.NewString(), "Finance"},
		}

		deptIDs := map[string]string{}
		for _, d := range departments {
			var existingID string
			row := db.Raw("SELECT id FROM departments WHERE name = ?", d.Name).Row()
			if err := row.Scan(&existingID); err == nil {
				deptIDs[d.Name] = existingID
				fmt.Println("department already exists:", d.Name)
				continue
			}
			if err := db.Exec("INSERT INTO departments (id, name, created_at) VALUES (?, ?, now())", d.ID, d.Name).Error; err != nil {
				log.Fatalf("failed to insert department %s: %v", d.Name, err)
			}
			deptIDs[d.Name] = d.ID
			fmt.Println("Seeded department:", d.Name)
		}

		users := []struct {
			Email      string
			FirstName  string
			LastName   string
			EmployeeID string
			Role       string
			Department string
		}{
			{"admin@mail.com", "Asha", "Putri", "EMP-0001", "Admin", ""},
			{"eng.head@mail.com", "Budi", "Santoso", "EMP-0002", "Department Head", "Engineering"},
			{"fin.head@mail.com", "Citra", "Dewi", "EMP-0003", "Department Head", "Finance"},
			{"eng.dev@mail.com", "Dika", "Pratama", "EMP-0004", "Employee", "Engineering"},
			{"fin.analyst@mail.com", "Eka", "Wijaya", "EMP-0005", "Employee", "Finance"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}

			var deptID any
			if u.Department != "" {
				deptID = deptIDs[u.Department]
			}

			if err := db.Exec(
				"INSERT INTO users (id, email, first_name, last_name, employee_id, role, department_id, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, now(), now())",
				uuid.NewString(), u.Email, u.FirstName, u.LastName, u.EmployeeID, u.Role, deptID, string(hash),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		fmt.Println("Seeding complete. All users have password:", password)
	},
}
