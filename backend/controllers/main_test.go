package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"project/backend/config"
	"project/backend/models"
	"project/backend/routes"
	"project/backend/utils"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	app        *fiber.App
	db         *gorm.DB
	cfg        *config.Config
	adminToken string
	phaseOne   models.Phase
	phaseTwo   models.Phase

	// Counters so every test works on its own rows
	nextWeekNumber  = 0
	nextPhaseNumber = 2
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	// In-memory database so the suite needs no running postgres
	var err error
	db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	if err := utils.Migrate(db); err != nil {
		panic(err)
	}

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg)

	// Seed the admin account
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	admin := models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	db.Create(&admin)
	adminToken, _ = utils.GenerateJWTToken(admin.ID, admin.Role, cfg)

	// Two phases shared by the whole suite: phase 1 is open to every
	// student, phase 2 starts locked
	phaseOne = models.Phase{Number: 1, Title: "Foundation", StartWeek: 1, EndWeek: 12}
	db.Create(&phaseOne)
	phaseTwo = models.Phase{Number: 2, Title: "Intermediate", StartWeek: 13, EndWeek: 24}
	db.Create(&phaseTwo)
}

func doRequest(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	buf := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		assert.NoError(t, err)
		buf = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func registerStudent(t *testing.T, username string) (uint, string) {
	status, result := doRequest(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "password",
	})
	assert.Equal(t, fiber.StatusOK, status)

	user := result["user"].(map[string]interface{})
	return uint(user["id"].(float64)), result["token"].(string)
}

// createWeek makes a fresh 100-point week (50 video / 50 assignment)
// through the admin API and returns its ID.
func createWeek(t *testing.T, phaseID uint) uint {
	nextWeekNumber++
	status, result := doRequest(t, "POST", "/api/admin/weeks/", adminToken, map[string]interface{}{
		"phase_id":    phaseID,
		"week_number": nextWeekNumber,
		"title":       "Test Week",
	})
	assert.Equal(t, fiber.StatusOK, status)

	week := result["week"].(map[string]interface{})
	return uint(week["ID"].(float64))
}

// setPhasePoints writes progress records giving the student exactly the
// requested percentage in every week of the phase.
func setPhasePoints(t *testing.T, studentID, phaseID uint, percent int) {
	var weeks []models.Week
	assert.NoError(t, db.Where("phase_id = ?", phaseID).Find(&weeks).Error)

	for _, w := range weeks {
		var record models.ProgressRecord
		err := db.Where("student_id = ? AND week_id = ?", studentID, w.ID).First(&record).Error
		if err != nil {
			record = models.ProgressRecord{StudentID: studentID, WeekID: w.ID}
		}
		record.Points = w.MaxPoints * percent / 100
		assert.NoError(t, db.Save(&record).Error)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func loadRecord(t *testing.T, studentID, weekID uint) models.ProgressRecord {
	var record models.ProgressRecord
	db.Where("student_id = ? AND week_id = ?", studentID, weekID).First(&record)
	return record
}
