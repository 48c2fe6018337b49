package folder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/auth"
	"github.com/frahmantamala/document-workspace/internal/core/events"
	"github.com/frahmantamala/document-workspace/internal/folder"
)

func authUser(id int64, departmentID *int64, perms ...string) *auth.User {
	return &auth.User{ID: id, Email: "user@test.local", DepartmentID: departmentID, Permissions: perms}
}

var _ = Describe("Folder Service", func() {
	var (
		repo    *fakeFolderRepo
		perms   *fakePermRepo
		service *folder.Service

		admin  *auth.User
		member *auth.User
	)

	BeforeEach(func() {
		repo = newFakeFolderRepo()
		perms = newFakePermRepo()
		lg := testLogger()
		resolver := folder.NewResolver(repo, perms, lg)
		service = folder.NewService(lg, repo, perms, resolver, events.NewEventBus(lg))

		admin = authUser(1, nil, "admin")
		member = authUser(2, nil)
	})

	Describe("CreateFolder", func() {
		It("rejects root folder creation without the create_folders permission", func() {
			_, err := service.CreateFolder(member, folder.CreateFolderDTO{Name: "Top"})
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})

		It("allows root folder creation with the create_folders permission", func() {
			creator := authUser(3, nil, "create_folders")

			f, err := service.CreateFolder(creator, folder.CreateFolderDTO{Name: "Top"})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.ID).NotTo(BeZero())
			Expect(f.InheritPermissions).To(BeTrue())
			Expect(f.AccessLevel).To(Equal(folder.AccessPrivate))
		})

		It("grants the creator manage on the new folder", func() {
			creator := authUser(3, nil, "create_folders")

			f, err := service.CreateFolder(creator, folder.CreateFolderDTO{Name: "Top"})
			Expect(err).NotTo(HaveOccurred())

			entries, err := perms.ActiveForFolder(f.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(*entries[0].UserID).To(Equal(creator.ID))
			Expect(entries[0].PermissionType).To(Equal(folder.PermissionManage))
		})

		It("requires write on the parent folder", func() {
			parent, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Top"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateFolder(member, folder.CreateFolderDTO{Name: "Sub", ParentFolderID: &parent.ID})
			Expect(err).To(MatchError(internal.ErrAccessDenied))

			perms.grantUser(parent.ID, member.ID, folder.PermissionWrite)
			sub, err := service.CreateFolder(member, folder.CreateFolderDTO{Name: "Sub", ParentFolderID: &parent.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(*sub.ParentFolderID).To(Equal(parent.ID))
		})

		It("bumps the parent subfolder count", func() {
			parent, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Top"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Sub", ParentFolderID: &parent.ID})
			Expect(err).NotTo(HaveOccurred())

			reloaded, err := repo.GetByID(parent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.SubfolderCount).To(Equal(int64(1)))
		})

		It("rejects a missing parent as a validation failure", func() {
			missing := int64(999)
			_, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Sub", ParentFolderID: &missing})

			var appErr *internal.AppError
			Expect(err).To(BeAssignableToTypeOf(appErr))
			Expect(err.(*internal.AppError).Code).To(Equal(internal.ErrCodeInvalidFolderParent))
		})

		It("honors an explicit inherit_permissions=false", func() {
			inherit := false
			f, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Sealed", InheritPermissions: &inherit})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.InheritPermissions).To(BeFalse())
		})
	})

	Describe("UpdateFolder", func() {
		var folderID int64

		BeforeEach(func() {
			f, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Docs"})
			Expect(err).NotTo(HaveOccurred())
			folderID = f.ID
		})

		It("allows renaming with write access", func() {
			perms.grantUser(folderID, member.ID, folder.PermissionWrite)

			name := "Renamed"
			f, err := service.UpdateFolder(member, folderID, folder.UpdateFolderDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Name).To(Equal("Renamed"))
		})

		It("demands manage for access control changes", func() {
			perms.grantUser(folderID, member.ID, folder.PermissionWrite)

			inherit := false
			_, err := service.UpdateFolder(member, folderID, folder.UpdateFolderDTO{InheritPermissions: &inherit})
			Expect(err).To(MatchError(internal.ErrAccessDenied))

			perms.grantUser(folderID, member.ID, folder.PermissionManage)
			f, err := service.UpdateFolder(member, folderID, folder.UpdateFolderDTO{InheritPermissions: &inherit})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.InheritPermissions).To(BeFalse())
		})
	})

	Describe("MoveFolder", func() {
		var rootID, draftsID, q3ID int64

		BeforeEach(func() {
			root, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Root"})
			Expect(err).NotTo(HaveOccurred())
			drafts, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Drafts", ParentFolderID: &root.ID})
			Expect(err).NotTo(HaveOccurred())
			q3, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Q3", ParentFolderID: &drafts.ID})
			Expect(err).NotTo(HaveOccurred())
			rootID, draftsID, q3ID = root.ID, drafts.ID, q3.ID
		})

		It("rejects moving a folder under itself", func() {
			_, err := service.MoveFolder(admin, draftsID, folder.MoveFolderDTO{NewParentFolderID: &draftsID})
			Expect(err).To(MatchError(internal.ErrFolderCycle))
		})

		It("rejects moving a folder under its own descendant", func() {
			_, err := service.MoveFolder(admin, rootID, folder.MoveFolderDTO{NewParentFolderID: &q3ID})
			Expect(err).To(MatchError(internal.ErrFolderCycle))
		})

		It("reparents and adjusts subfolder counts", func() {
			f, err := service.MoveFolder(admin, q3ID, folder.MoveFolderDTO{NewParentFolderID: &rootID})
			Expect(err).NotTo(HaveOccurred())
			Expect(*f.ParentFolderID).To(Equal(rootID))

			drafts, err := repo.GetByID(draftsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(drafts.SubfolderCount).To(Equal(int64(0)))

			root, err := repo.GetByID(rootID)
			Expect(err).NotTo(HaveOccurred())
			Expect(root.SubfolderCount).To(Equal(int64(2)))
		})

		It("allows promoting to a root folder", func() {
			f, err := service.MoveFolder(admin, q3ID, folder.MoveFolderDTO{NewParentFolderID: nil})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.ParentFolderID).To(BeNil())
		})

		It("requires manage on the folder being moved", func() {
			perms.grantUser(q3ID, member.ID, folder.PermissionWrite)
			perms.grantUser(rootID, member.ID, folder.PermissionWrite)

			_, err := service.MoveFolder(member, q3ID, folder.MoveFolderDTO{NewParentFolderID: &rootID})
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})
	})

	Describe("DeactivateFolder", func() {
		var rootID, draftsID, q3ID int64

		BeforeEach(func() {
			root, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Root"})
			Expect(err).NotTo(HaveOccurred())
			drafts, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Drafts", ParentFolderID: &root.ID})
			Expect(err).NotTo(HaveOccurred())
			q3, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Q3", ParentFolderID: &drafts.ID})
			Expect(err).NotTo(HaveOccurred())
			rootID, draftsID, q3ID = root.ID, drafts.ID, q3.ID
		})

		It("requires delete level", func() {
			perms.grantUser(draftsID, member.ID, folder.PermissionWrite)
			err := service.DeactivateFolder(member, draftsID, false)
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})

		It("deactivates only the folder itself without delete_contents", func() {
			Expect(service.DeactivateFolder(admin, draftsID, false)).To(Succeed())

			_, err := repo.GetByID(draftsID)
			Expect(err).To(MatchError(internal.ErrFolderNotFound))

			_, err = repo.GetByID(q3ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deactivates the whole subtree with delete_contents", func() {
			Expect(service.DeactivateFolder(admin, rootID, true)).To(Succeed())

			for _, id := range []int64{rootID, draftsID, q3ID} {
				_, err := repo.GetByID(id)
				Expect(err).To(MatchError(internal.ErrFolderNotFound))
			}
		})
	})

	Describe("GetAncestorChain", func() {
		It("returns the chain root first, folder last", func() {
			root, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Root"})
			Expect(err).NotTo(HaveOccurred())
			drafts, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Drafts", ParentFolderID: &root.ID})
			Expect(err).NotTo(HaveOccurred())
			q3, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Q3", ParentFolderID: &drafts.ID})
			Expect(err).NotTo(HaveOccurred())

			chain, err := service.GetAncestorChain(admin, q3.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(3))
			Expect(chain[0].ID).To(Equal(root.ID))
			Expect(chain[1].ID).To(Equal(drafts.ID))
			Expect(chain[2].ID).To(Equal(q3.ID))
		})

		It("keeps working after a non-cascading parent deactivation", func() {
			root, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Root"})
			Expect(err).NotTo(HaveOccurred())
			drafts, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Drafts", ParentFolderID: &root.ID})
			Expect(err).NotTo(HaveOccurred())
			q3, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Q3", ParentFolderID: &drafts.ID})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeactivateFolder(admin, drafts.ID, false)).To(Succeed())

			chain, err := service.GetAncestorChain(admin, q3.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(3))
			Expect(chain[1].ID).To(Equal(drafts.ID))
			Expect(chain[1].IsActive).To(BeFalse())
		})

		It("surfaces a broken chain as an integrity fault", func() {
			missing := int64(999)
			orphanID := repo.addFolder("Orphan", &missing, true)

			_, err := service.GetAncestorChain(admin, orphanID)
			Expect(err).To(MatchError(folder.ErrBrokenHierarchy))
		})
	})

	Describe("GrantPermission", func() {
		var folderID int64

		BeforeEach(func() {
			f, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Shared"})
			Expect(err).NotTo(HaveOccurred())
			folderID = f.ID
		})

		It("requires manage on the folder", func() {
			target := int64(5)
			_, err := service.GrantPermission(member, folderID, folder.GrantPermissionDTO{
				UserID:         &target,
				PermissionType: "read",
			})
			Expect(err).To(MatchError(internal.ErrAccessDenied))
		})

		It("rejects a grant naming both a user and a department", func() {
			uid, did := int64(5), int64(7)
			_, err := service.GrantPermission(admin, folderID, folder.GrantPermissionDTO{
				UserID:         &uid,
				DepartmentID:   &did,
				PermissionType: "read",
			})

			var appErr *internal.AppError
			Expect(err).To(BeAssignableToTypeOf(appErr))
			Expect(err.(*internal.AppError).Code).To(Equal(internal.ErrCodeInvalidPrincipal))
		})

		It("rejects an unknown permission type", func() {
			target := int64(5)
			_, err := service.GrantPermission(admin, folderID, folder.GrantPermissionDTO{
				UserID:         &target,
				PermissionType: "owner",
			})
			Expect(err).To(HaveOccurred())
		})

		It("conflicts on an identical active grant", func() {
			target := int64(5)
			dto := folder.GrantPermissionDTO{UserID: &target, PermissionType: "read"}

			_, err := service.GrantPermission(admin, folderID, dto)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GrantPermission(admin, folderID, dto)
			Expect(err).To(MatchError(internal.ErrDuplicateGrant))
		})

		It("allows the same principal at a different level", func() {
			target := int64(5)
			_, err := service.GrantPermission(admin, folderID, folder.GrantPermissionDTO{UserID: &target, PermissionType: "read"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GrantPermission(admin, folderID, folder.GrantPermissionDTO{UserID: &target, PermissionType: "write"})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("RevokePermission", func() {
		var folderID int64
		target := int64(5)

		BeforeEach(func() {
			f, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Shared"})
			Expect(err).NotTo(HaveOccurred())
			folderID = f.ID

			perms.grantUser(folderID, target, folder.PermissionRead)
			perms.grantUser(folderID, target, folder.PermissionWrite)
		})

		It("revokes entries matching every filter", func() {
			pt := "read"
			count, err := service.RevokePermission(admin, folderID, folder.RevokePermissionDTO{
				UserID:         &target,
				PermissionType: &pt,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("revokes all levels for a principal when no type is given", func() {
			count, err := service.RevokePermission(admin, folderID, folder.RevokePermissionDTO{UserID: &target})
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("succeeds with a zero count when nothing matches", func() {
			unknown := int64(404)
			count, err := service.RevokePermission(admin, folderID, folder.RevokePermissionDTO{UserID: &unknown})
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("ListPermissions", func() {
		It("requires manage and lists only the folder's own entries", func() {
			root, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Root"})
			Expect(err).NotTo(HaveOccurred())
			sub, err := service.CreateFolder(admin, folder.CreateFolderDTO{Name: "Sub", ParentFolderID: &root.ID})
			Expect(err).NotTo(HaveOccurred())

			perms.grantUser(root.ID, member.ID, folder.PermissionRead)

			_, err = service.ListPermissions(member, sub.ID)
			Expect(err).To(MatchError(internal.ErrAccessDenied))

			entries, err := service.ListPermissions(admin, sub.ID)
			Expect(err).NotTo(HaveOccurred())
			// the creator's manage grant only; the read grant lives on the parent
			Expect(entries).To(HaveLen(1))
			Expect(*entries[0].UserID).To(Equal(admin.ID))
		})
	})
})
