package validation_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/org-chat/internal"
	"github.com/frahmantamala/org-chat/internal/core/common/validation"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("ValidationBuilder", func() {
	It("should pass when all rules hold", func() {
		v := validation.NewValidator()
		v.Field("message", "hello").Required().MaxLength(10)
		Expect(v.Validate()).To(BeNil())
	})

	It("should collect failures per field", func() {
		v := validation.NewValidator()
		v.Field("target_user_id", "").Required()
		v.Field("action", "archive").OneOf("disable", "enable")

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(internal.ErrCodeValidationFailed))

		details, ok := err.Details.(internal.ValidationErrors)
		Expect(ok).To(BeTrue())
		Expect(details.Errors).To(HaveLen(2))
		Expect(details.Errors[0].Field).To(Equal("target_user_id"))
		Expect(details.Errors[1].Field).To(Equal("action"))
	})

	It("should treat whitespace-only strings as missing", func() {
		v := validation.NewValidator()
		v.Field("message", "   ").Required()
		Expect(v.Validate()).NotTo(BeNil())
	})
})

var _ = Describe("message validation helpers", func() {
	It("should accept a normal message body", func() {
		Expect(validation.ValidateMessageBody("lunch at noon?")).To(BeNil())
	})

	It("should reject an empty body", func() {
		err := validation.ValidateMessageBody("")
		Expect(err).NotTo(BeNil())
	})

	It("should reject a body over the length cap", func() {
		body := strings.Repeat("a", validation.MaxMessageLength+1)
		Expect(validation.ValidateMessageBody(body)).NotTo(BeNil())
	})

	It("should require a receiver", func() {
		Expect(validation.ValidateReceiver("")).NotTo(BeNil())
		Expect(validation.ValidateReceiver("user-1")).To(BeNil())
	})

	It("should only allow known toggle actions", func() {
		Expect(validation.ValidateToggleAction("disable")).To(BeNil())
		Expect(validation.ValidateToggleAction("enable")).To(BeNil())
		Expect(validation.ValidateToggleAction("mute")).NotTo(BeNil())
	})
})
