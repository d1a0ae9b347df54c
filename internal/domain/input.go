package domain

// PersonInput is the writable part of a person, as accepted by the admin
// and registration endpoints.
type PersonInput struct {
	Name        string `json:"name" validate:"required,max=50,fullname"`
	Age         int    `json:"age" validate:"gte=10,lte=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	PhoneNumber string `json:"phone_number" validate:"required,ruphone"`
	Password    string `json:"password" validate:"omitempty,min=4,max=72"`
	Role        Role   `json:"role,omitempty" validate:"omitempty,oneof=ADMIN USER"`
}
