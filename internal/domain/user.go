package domain

// User is owned by the external user-management system; this service only
// reads the public projection.
type User struct {
	ID       string `json:"id" dynamodbav:"id"`
	Username string `json:"username" dynamodbav:"username"`
	Status   string `json:"status" dynamodbav:"status"`
}
