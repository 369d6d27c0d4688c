package intake

import "lead-intake/internal/common/validation"

func GetSubmissionSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"contactName", "email"},
		Properties: map[string]validation.Property{
			"contactName": {
				Type:        "string",
				Description: "Full name of the contact",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(200),
			},
			"email": {
				Type:        "string",
				Description: "Email address of the contact",
				Format:      "email",
				MaxLength:   validation.IntPtr(255),
			},
			"phone": {
				Type:        "string",
				Description: "Phone number",
				MaxLength:   validation.IntPtr(50),
			},
			"serviceName": {
				Type:        "string",
				Description: "Organization or service name",
				MaxLength:   validation.IntPtr(200),
			},
			"position": {
				Type:        "string",
				Description: "Job title of the contact",
				MaxLength:   validation.IntPtr(100),
			},
			"serviceType": {
				Type:        "string",
				Description: "Service type code",
				MaxLength:   validation.IntPtr(100),
			},
			"studentCount": {
				Type:        "string",
				Description: "Student count bucket",
				MaxLength:   validation.IntPtr(50),
			},
			"indicativeBudget": {
				Type:        "string",
				Description: "Budget bucket",
				MaxLength:   validation.IntPtr(50),
			},
			"ageGroup": {
				Type:        "string",
				Description: "Age group bucket",
				MaxLength:   validation.IntPtr(50),
			},
			"phase": {
				Type:        "array",
				Description: "Planning stage tags",
				Items:       &validation.Property{Type: "string"},
			},
			"additionalInfo": {
				Type:        "string",
				Description: "Free-text notes",
				MaxLength:   validation.IntPtr(5000),
			},
			"photos": {
				Type:        "array",
				Description: "Base64 data-URL encoded photos",
				Items:       &validation.Property{Type: "string"},
			},
		},
	}
}
