package database

import (
	"database/sql"

	"github.com/BRian-210/Karumande/app/models"
)

func GetStudentByID(db *sql.DB, id string) (*models.Student, error) {
	student := &models.Student{}
	query := `SELECT id, student_id, first_name, last_name, gender, is_active, created_at, updated_at
			  FROM students WHERE id = $1 AND is_active = true`

	var gender *string
	err := db.QueryRow(query, id).Scan(
		&student.ID, &student.StudentID, &student.FirstName, &student.LastName,
		&gender, &student.IsActive, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gender != nil {
		student.Gender = models.Gender(*gender)
	}

	// Load parents
	parentRows, err := db.Query(`SELECT p.id, p.user_id, p.first_name, p.last_name, p.phone, p.email
							 FROM parents p
							 JOIN student_parents sp ON p.id = sp.parent_id
							 WHERE sp.student_id = $1`, id)
	if err == nil {
		defer parentRows.Close()
		for parentRows.Next() {
			parent := &models.Parent{}
			if err := parentRows.Scan(&parent.ID, &parent.UserID, &parent.FirstName,
				&parent.LastName, &parent.Phone, &parent.Email); err != nil {
				continue
			}
			student.Parents = append(student.Parents, parent)
		}
	}

	return student, nil
}

// GetStudentGuardianUserIDs returns the user account ids of the guardians
// linked to a student. Payment authorization checks the caller against this
// set: a parent may only initiate payments for their own children.
func GetStudentGuardianUserIDs(db *sql.DB, studentID string) ([]string, error) {
	query := `SELECT p.user_id
			  FROM parents p
			  JOIN student_parents sp ON p.id = sp.parent_id
			  WHERE sp.student_id = $1 AND p.user_id IS NOT NULL`

	rows, err := db.Query(query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			continue
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}

func SearchStudents(db *sql.DB, search string, limit, offset int) ([]*models.Student, error) {
	query := `SELECT id, student_id, first_name, last_name, gender, is_active, created_at, updated_at
			  FROM students
			  WHERE is_active = true
			    AND ($1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR student_id ILIKE '%' || $1 || '%')
			  ORDER BY first_name, last_name
			  LIMIT $2 OFFSET $3`

	rows, err := db.Query(query, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student := &models.Student{}
		var gender *string
		err := rows.Scan(
			&student.ID, &student.StudentID, &student.FirstName, &student.LastName,
			&gender, &student.IsActive, &student.CreatedAt, &student.UpdatedAt,
		)
		if err != nil {
			continue
		}
		if gender != nil {
			student.Gender = models.Gender(*gender)
		}
		students = append(students, student)
	}

	if students == nil {
		students = []*models.Student{}
	}
	return students, nil
}

func CreateStudent(db *sql.DB, student *models.Student) error {
	query := `INSERT INTO students (student_id, first_name, last_name, gender, is_active)
			  VALUES ($1, $2, $3, NULLIF($4, ''), true)
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query, student.StudentID, student.FirstName, student.LastName, string(student.Gender)).
		Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
}

func CreateParent(db *sql.DB, parent *models.Parent) error {
	query := `INSERT INTO parents (user_id, first_name, last_name, phone, email, address, relationship)
			  VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query, parent.UserID, parent.FirstName, parent.LastName,
		parent.Phone, parent.Email, parent.Address, string(parent.Relationship)).
		Scan(&parent.ID, &parent.CreatedAt, &parent.UpdatedAt)
}

func LinkStudentToParent(db *sql.DB, studentID, parentID string) error {
	query := `INSERT INTO student_parents (student_id, parent_id)
			  VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := db.Exec(query, studentID, parentID)
	return err
}
