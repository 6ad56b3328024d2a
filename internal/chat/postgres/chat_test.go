package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/org-chat/internal/chat"
)

func TestChatRepositories(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ChatRepositories Suite")
}

var _ = Describe("ConversationRepository", func() {
	var (
		db   *gorm.DB
		repo chat.ConversationRepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&ConversationRecord{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewConversationRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("UpsertOnMessage", func() {
		It("should create one row per pair regardless of send direction", func() {
			now := time.Now().UTC()

			err := repo.UpsertOnMessage(ctx, "alice", "bob", "hi bob", now)
			Expect(err).NotTo(HaveOccurred())

			err = repo.UpsertOnMessage(ctx, "bob", "alice", "hi alice", now.Add(time.Second))
			Expect(err).NotTo(HaveOccurred())

			var count int64
			err = db.Model(&ConversationRecord{}).Count(&count).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			conv, err := repo.FindByPair(ctx, "bob", "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.LastMessage).To(Equal("hi alice"))
		})

		It("should keep a single row when both directions race on first contact", func() {
			// one underlying connection so the racing goroutines hit the
			// same in-memory database
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())
			sqlDB.SetMaxOpenConns(1)

			start := time.Now().UTC()
			errs := make(chan error, 40)

			var wg sync.WaitGroup
			for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
				wg.Add(1)
				go func(sender, receiver string) {
					defer wg.Done()
					defer GinkgoRecover()
					for i := 0; i < 20; i++ {
						errs <- repo.UpsertOnMessage(ctx, sender, receiver, "hello",
							start.Add(time.Duration(i)*time.Millisecond))
					}
				}(pair[0], pair[1])
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			var count int64
			err = db.Model(&ConversationRecord{}).Count(&count).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("should advance last_message and updated_at on each send", func() {
			first := time.Now().UTC().Add(-time.Minute)
			second := time.Now().UTC()

			Expect(repo.UpsertOnMessage(ctx, "alice", "bob", "first", first)).To(Succeed())
			Expect(repo.UpsertOnMessage(ctx, "alice", "bob", "second", second)).To(Succeed())

			conv, err := repo.FindByPair(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.LastMessage).To(Equal("second"))
			Expect(conv.UpdatedAt.Unix()).To(Equal(second.Unix()))
		})
	})

	Describe("FindByPair", func() {
		It("should return ErrConversationNotFound for an unknown pair", func() {
			_, err := repo.FindByPair(ctx, "alice", "stranger")
			Expect(err).To(Equal(chat.ErrConversationNotFound))
		})
	})

	Describe("SetDisabled", func() {
		It("should create a disabled conversation when none exists", func() {
			Expect(repo.SetDisabled(ctx, "head", "employee", true)).To(Succeed())

			conv, err := repo.FindByPair(ctx, "employee", "head")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.IsDisabled).To(BeTrue())
		})

		It("should toggle without touching message recency", func() {
			sentAt := time.Now().UTC().Add(-time.Hour)
			Expect(repo.UpsertOnMessage(ctx, "head", "employee", "hello", sentAt)).To(Succeed())

			Expect(repo.SetDisabled(ctx, "head", "employee", true)).To(Succeed())

			conv, err := repo.FindByPair(ctx, "head", "employee")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.IsDisabled).To(BeTrue())
			Expect(conv.LastMessage).To(Equal("hello"))
			Expect(conv.UpdatedAt.Unix()).To(Equal(sentAt.Unix()))

			Expect(repo.SetDisabled(ctx, "head", "employee", false)).To(Succeed())

			conv, err = repo.FindByPair(ctx, "head", "employee")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.IsDisabled).To(BeFalse())
		})
	})

	Describe("ListForUser", func() {
		It("should list conversations most recent first", func() {
			older := time.Now().UTC().Add(-time.Hour)
			newer := time.Now().UTC()

			Expect(repo.UpsertOnMessage(ctx, "alice", "bob", "old chat", older)).To(Succeed())
			Expect(repo.UpsertOnMessage(ctx, "alice", "carol", "new chat", newer)).To(Succeed())

			convs, err := repo.ListForUser(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(2))
			Expect(convs[0].LastMessage).To(Equal("new chat"))
			Expect(convs[1].LastMessage).To(Equal("old chat"))
		})

		It("should not include other users' conversations", func() {
			Expect(repo.UpsertOnMessage(ctx, "bob", "carol", "private", time.Now().UTC())).To(Succeed())

			convs, err := repo.ListForUser(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(BeEmpty())
		})
	})
})

var _ = Describe("MessageRepository", func() {
	var (
		db   *gorm.DB
		repo chat.MessageRepositoryAPI
		ctx  context.Context
	)

	appendMessage := func(id, sender, receiver, body string, at time.Time) {
		err := repo.Append(ctx, &chat.Message{
			ID:         id,
			SenderID:   sender,
			ReceiverID: receiver,
			Body:       body,
			Timestamp:  at,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&MessageRecord{}, &MessageDeletionRecord{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewMessageRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("ListBetween", func() {
		It("should interleave both directions oldest first", func() {
			base := time.Now().UTC().Add(-time.Hour)
			appendMessage("m1", "alice", "bob", "one", base)
			appendMessage("m2", "bob", "alice", "two", base.Add(time.Minute))
			appendMessage("m3", "alice", "bob", "three", base.Add(2*time.Minute))

			msgs, err := repo.ListBetween(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(3))
			Expect(msgs[0].Body).To(Equal("one"))
			Expect(msgs[1].Body).To(Equal("two"))
			Expect(msgs[2].Body).To(Equal("three"))
		})

		It("should exclude messages from other pairs", func() {
			now := time.Now().UTC()
			appendMessage("m1", "alice", "bob", "for bob", now)
			appendMessage("m2", "alice", "carol", "for carol", now)

			msgs, err := repo.ListBetween(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Body).To(Equal("for bob"))
		})
	})

	Describe("SoftDeleteForViewer", func() {
		It("should hide messages for the clearing viewer only", func() {
			now := time.Now().UTC()
			appendMessage("m1", "alice", "bob", "hello", now)
			appendMessage("m2", "bob", "alice", "hey", now.Add(time.Second))

			Expect(repo.SoftDeleteForViewer(ctx, "alice", "bob")).To(Succeed())

			aliceView, err := repo.ListBetween(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(aliceView).To(BeEmpty())

			bobView, err := repo.ListBetween(ctx, "bob", "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(bobView).To(HaveLen(2))
		})

		It("should be idempotent", func() {
			appendMessage("m1", "alice", "bob", "hello", time.Now().UTC())

			Expect(repo.SoftDeleteForViewer(ctx, "alice", "bob")).To(Succeed())
			Expect(repo.SoftDeleteForViewer(ctx, "alice", "bob")).To(Succeed())

			var count int64
			err := db.Model(&MessageDeletionRecord{}).Count(&count).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("should leave later messages visible", func() {
			appendMessage("m1", "alice", "bob", "before clear", time.Now().UTC())
			Expect(repo.SoftDeleteForViewer(ctx, "alice", "bob")).To(Succeed())

			appendMessage("m2", "bob", "alice", "after clear", time.Now().UTC())

			msgs, err := repo.ListBetween(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Body).To(Equal("after clear"))
		})
	})

	Describe("MarkReadFrom", func() {
		It("should mark only one direction as read", func() {
			now := time.Now().UTC()
			appendMessage("m1", "bob", "alice", "from bob", now)
			appendMessage("m2", "alice", "bob", "from alice", now)

			Expect(repo.MarkReadFrom(ctx, "bob", "alice")).To(Succeed())

			fromBob, err := repo.CountUnreadFrom(ctx, "bob", "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromBob).To(BeZero())

			fromAlice, err := repo.CountUnreadFrom(ctx, "alice", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromAlice).To(Equal(int64(1)))
		})

		It("should be idempotent", func() {
			appendMessage("m1", "bob", "alice", "hello", time.Now().UTC())

			Expect(repo.MarkReadFrom(ctx, "bob", "alice")).To(Succeed())
			Expect(repo.MarkReadFrom(ctx, "bob", "alice")).To(Succeed())

			count, err := repo.CountUnreadFrom(ctx, "bob", "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("CountUnreadTotal", func() {
		It("should sum unread across senders, skipping cleared messages", func() {
			now := time.Now().UTC()
			appendMessage("m1", "bob", "alice", "one", now)
			appendMessage("m2", "carol", "alice", "two", now)
			appendMessage("m3", "carol", "alice", "three", now)

			Expect(repo.SoftDeleteForViewer(ctx, "alice", "bob")).To(Succeed())

			count, err := repo.CountUnreadTotal(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})
	})

	Describe("UpdateBody", func() {
		It("should replace the message text", func() {
			appendMessage("m1", "alice", "bob", "typo", time.Now().UTC())

			Expect(repo.UpdateBody(ctx, "m1", "fixed")).To(Succeed())

			msg, err := repo.GetByID(ctx, "m1")
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Body).To(Equal("fixed"))
		})

		It("should return ErrMessageNotFound for a missing id", func() {
			err := repo.UpdateBody(ctx, "missing", "text")
			Expect(err).To(Equal(chat.ErrMessageNotFound))
		})
	})

	Describe("HardDelete", func() {
		It("should remove the message and its deletion marks", func() {
			appendMessage("m1", "alice", "bob", "gone", time.Now().UTC())
			Expect(repo.SoftDeleteForViewer(ctx, "bob", "alice")).To(Succeed())

			Expect(repo.HardDelete(ctx, "m1")).To(Succeed())

			_, err := repo.GetByID(ctx, "m1")
			Expect(err).To(Equal(chat.ErrMessageNotFound))

			var count int64
			err = db.Model(&MessageDeletionRecord{}).Count(&count).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("should return ErrMessageNotFound on a second delete", func() {
			appendMessage("m1", "alice", "bob", "gone", time.Now().UTC())

			Expect(repo.HardDelete(ctx, "m1")).To(Succeed())
			Expect(repo.HardDelete(ctx, "m1")).To(Equal(chat.ErrMessageNotFound))
		})
	})
})
