package permission_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/org-chat/internal/directory"
	"github.com/frahmantamala/org-chat/internal/permission"
)

func TestPermissionEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PermissionEngine Suite")
}

var _ = Describe("Decide", func() {
	admin := permission.Principal{Role: directory.RoleAdmin}
	headEng := permission.Principal{Role: directory.RoleDepartmentHead, DepartmentID: "eng"}
	headOps := permission.Principal{Role: directory.RoleDepartmentHead, DepartmentID: "ops"}
	employeeEng := permission.Principal{Role: directory.RoleEmployee, DepartmentID: "eng"}
	employeeOps := permission.Principal{Role: directory.RoleEmployee, DepartmentID: "ops"}
	unknown := permission.Principal{Role: directory.RoleUnknown}

	noConversation := permission.ConversationState{}
	existing := permission.ConversationState{Exists: true}
	disabled := permission.ConversationState{Exists: true, Disabled: true}

	Describe("admin senders", func() {
		It("allows messaging anyone", func() {
			Expect(permission.Decide(admin, employeeEng, noConversation).Allowed).To(BeTrue())
			Expect(permission.Decide(admin, headEng, noConversation).Allowed).To(BeTrue())
			Expect(permission.Decide(admin, admin, noConversation).Allowed).To(BeTrue())
		})

		It("allows messaging even in a disabled conversation", func() {
			decision := permission.Decide(admin, employeeEng, disabled)
			Expect(decision.Allowed).To(BeTrue())
			Expect(decision.Reason).To(BeEmpty())
		})
	})

	Describe("department head senders", func() {
		It("allows messaging admins regardless of conversation state", func() {
			Expect(permission.Decide(headEng, admin, noConversation).Allowed).To(BeTrue())
			Expect(permission.Decide(headEng, admin, disabled).Allowed).To(BeTrue())
		})

		It("allows messaging employees in the same department", func() {
			Expect(permission.Decide(headEng, employeeEng, noConversation).Allowed).To(BeTrue())
			Expect(permission.Decide(headEng, employeeEng, existing).Allowed).To(BeTrue())
		})

		It("denies messaging own employees when the conversation is disabled", func() {
			decision := permission.Decide(headEng, employeeEng, disabled)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("Chat is disabled."))
		})

		It("denies messaging employees of another department", func() {
			decision := permission.Decide(headEng, employeeOps, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("You can only message Admins or your Department's employees."))
		})

		It("denies messaging other department heads", func() {
			decision := permission.Decide(headEng, headOps, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("You can only message Admins or your Department's employees."))
		})

		It("is not blocked by a disabled conversation when targeting another head", func() {
			// The disabled check only applies to heads when the target is an
			// own-department employee; the generic denial wins here.
			decision := permission.Decide(headEng, headOps, disabled)
			Expect(decision.Reason).To(Equal("You can only message Admins or your Department's employees."))
		})
	})

	Describe("employee senders", func() {
		It("is blocked by a disabled conversation before any target rule", func() {
			for _, receiver := range []permission.Principal{admin, headEng, headOps, employeeEng} {
				decision := permission.Decide(employeeEng, receiver, disabled)
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.Reason).To(Equal("This chat has been disabled."))
			}
		})

		It("allows messaging the own department head", func() {
			Expect(permission.Decide(employeeEng, headEng, noConversation).Allowed).To(BeTrue())
		})

		It("denies messaging another department's head", func() {
			decision := permission.Decide(employeeEng, headOps, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("You can only message your own Department Head."))
		})

		It("allows replying to an admin when a conversation exists", func() {
			Expect(permission.Decide(employeeEng, admin, existing).Allowed).To(BeTrue())
		})

		It("denies initiating contact with an admin", func() {
			decision := permission.Decide(employeeEng, admin, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("You cannot start a chat with an Admin. Wait for them to message you."))
		})

		It("denies messaging other employees", func() {
			decision := permission.Decide(employeeEng, employeeOps, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("Permission Denied."))

			decision = permission.Decide(employeeEng, employeeEng, noConversation)
			Expect(decision.Reason).To(Equal("Permission Denied."))
		})
	})

	Describe("unknown roles", func() {
		It("denies senders with an unrecognized role", func() {
			decision := permission.Decide(unknown, admin, noConversation)
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("Permission Denied"))
		})
	})

})
