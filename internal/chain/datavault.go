package chain

// DataVault is the file registry: the canonical mapping from a
// content-derived FileID to its storage pointer, owner, per-recipient
// encrypted-key grants, and an append-only access audit log.
//
// Grant writes are owner-gated, with one exception: addresses on the
// deployer-maintained grantor allowlist (in practice the PostRegistry
// contract address) may grant access to any file. This is the explicit
// delegation mechanism that lets pay-per-view settlements record
// grants on files the registry does not own.
type DataVault struct {
	ledger   *Ledger
	addr     Address
	deployer Address

	files    map[FileID]*fileRecord
	grantors map[Address]bool
}

type fileRecord struct {
	owner          Address
	storagePointer string
	metadata       string
	grants         map[Address]string
	accessLog      []AccessEntry
}

// AccessEntry is one line of a file's audit log.
type AccessEntry struct {
	Accessor  Address
	Timestamp int64
}

// FileInfo is the public, non-privileged view of a file record.
type FileInfo struct {
	Owner          Address
	StoragePointer string
	Metadata       string
	Exists         bool
}

// NewDataVault deploys the vault. The deployer is the only address
// allowed to manage the grantor allowlist.
func NewDataVault(ledger *Ledger, deployer Address) *DataVault {
	return &DataVault{
		ledger:   ledger,
		addr:     ledger.NewContractAddress("DataVault"),
		deployer: deployer,
		files:    make(map[FileID]*fileRecord),
		grantors: make(map[Address]bool),
	}
}

// Address returns the vault's contract address.
func (v *DataVault) Address() Address {
	return v.addr
}

// RegisterFile records a new file. The caller becomes the owner. A
// FileID can be registered exactly once.
func (v *DataVault) RegisterFile(call Call, fileID FileID, storagePointer, metadata string) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	if _, ok := v.files[fileID]; ok {
		return ErrFileAlreadyExists
	}

	v.files[fileID] = &fileRecord{
		owner:          call.Caller,
		storagePointer: storagePointer,
		metadata:       metadata,
		grants:         make(map[Address]string),
	}
	v.ledger.emit(FileRegistered{
		FileID:         fileID,
		Owner:          call.Caller,
		StoragePointer: storagePointer,
		Metadata:       metadata,
	})
	return nil
}

// GrantAccess upserts the recipient's encrypted key. Re-granting
// overwrites the previous key. Only the file owner or an allowlisted
// grantor may call this.
func (v *DataVault) GrantAccess(call Call, fileID FileID, recipient Address, encryptedKey string) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()
	return v.grantAccess(call.Caller, fileID, recipient, encryptedKey)
}

// grantAccess is the lock-free path shared with PostRegistry's
// settlement flow.
func (v *DataVault) grantAccess(caller Address, fileID FileID, recipient Address, encryptedKey string) error {
	rec, ok := v.files[fileID]
	if !ok {
		return ErrFileNotFound
	}
	if caller != rec.owner && !v.grantors[caller] {
		return ErrNotOwner
	}

	rec.grants[recipient] = encryptedKey
	v.ledger.emit(AccessGranted{FileID: fileID, Recipient: recipient, EncryptedKey: encryptedKey})
	return nil
}

// RevokeAccess deletes the recipient's grant. Revoking an absent
// grant is an idempotent no-op, not an error; the event is still
// emitted so indexers see the owner's intent.
func (v *DataVault) RevokeAccess(call Call, fileID FileID, recipient Address) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	rec, ok := v.files[fileID]
	if !ok {
		return ErrFileNotFound
	}
	if call.Caller != rec.owner {
		return ErrNotOwner
	}

	delete(rec.grants, recipient)
	v.ledger.emit(AccessRevoked{FileID: fileID, Recipient: recipient})
	return nil
}

// CheckAccess reports whether addr is the file owner or holds a
// grant. A missing file is simply false, never an error.
func (v *DataVault) CheckAccess(fileID FileID, addr Address) bool {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()
	return v.checkAccess(fileID, addr)
}

func (v *DataVault) checkAccess(fileID FileID, addr Address) bool {
	rec, ok := v.files[fileID]
	if !ok {
		return false
	}
	if addr == rec.owner {
		return true
	}
	_, granted := rec.grants[addr]
	return granted
}

// GetFile returns the storage pointer for an authorized caller and
// appends one entry to the access log. The log side effect applies
// uniformly to every successful call, the owner's included: the audit
// trail records all raw pointer retrievals.
func (v *DataVault) GetFile(call Call, fileID FileID) (string, error) {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	if !v.checkAccess(fileID, call.Caller) {
		return "", ErrAccessDenied
	}
	rec := v.files[fileID]

	ts := v.ledger.timestamp()
	rec.accessLog = append(rec.accessLog, AccessEntry{Accessor: call.Caller, Timestamp: ts})
	v.ledger.emit(Accessed{FileID: fileID, Accessor: call.Caller, Timestamp: ts})
	return rec.storagePointer, nil
}

// GetFileInfo is the pure read used by public and free content paths.
// No access check, no log side effect.
func (v *DataVault) GetFileInfo(fileID FileID) FileInfo {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()

	rec, ok := v.files[fileID]
	if !ok {
		return FileInfo{}
	}
	return FileInfo{
		Owner:          rec.owner,
		StoragePointer: rec.storagePointer,
		Metadata:       rec.metadata,
		Exists:         true,
	}
}

// GetEncryptedKey returns the key last granted to addr. The access
// check is against the target address, not the caller: any address
// may query any recipient's key visibility, mirroring the public
// readability of the grants mapping.
func (v *DataVault) GetEncryptedKey(fileID FileID, addr Address) (string, error) {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()

	if !v.checkAccess(fileID, addr) {
		return "", ErrAccessDenied
	}
	return v.files[fileID].grants[addr], nil
}

// GetAccessHistoryLength returns the audit log length, zero for a
// missing file.
func (v *DataVault) GetAccessHistoryLength(fileID FileID) int {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()

	rec, ok := v.files[fileID]
	if !ok {
		return 0
	}
	return len(rec.accessLog)
}

// GetAccessHistory returns a page of the audit log. Out-of-range
// offset or limit values are clamped, so a short or empty slice comes
// back instead of an error.
func (v *DataVault) GetAccessHistory(fileID FileID, offset, limit int) []AccessEntry {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()

	rec, ok := v.files[fileID]
	if !ok {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(rec.accessLog) {
		return nil
	}
	end := offset + limit
	if end > len(rec.accessLog) {
		end = len(rec.accessLog)
	}
	out := make([]AccessEntry, end-offset)
	copy(out, rec.accessLog[offset:end])
	return out
}

// AuthorizeGrantor allowlists an address to grant access on any file.
// Deployer only.
func (v *DataVault) AuthorizeGrantor(call Call, grantor Address) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	if call.Caller != v.deployer {
		return ErrNotDeployer
	}
	v.grantors[grantor] = true
	v.ledger.emit(GrantorAuthorized{Grantor: grantor})
	return nil
}

// RevokeGrantor removes an address from the allowlist. Deployer only.
func (v *DataVault) RevokeGrantor(call Call, grantor Address) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	if call.Caller != v.deployer {
		return ErrNotDeployer
	}
	delete(v.grantors, grantor)
	v.ledger.emit(GrantorRevoked{Grantor: grantor})
	return nil
}

// IsAuthorizedGrantor reports allowlist membership.
func (v *DataVault) IsAuthorizedGrantor(addr Address) bool {
	v.ledger.mu.RLock()
	defer v.ledger.mu.RUnlock()
	return v.grantors[addr]
}

func (v *DataVault) fileOwner(fileID FileID) (Address, bool) {
	rec, ok := v.files[fileID]
	if !ok {
		return "", false
	}
	return rec.owner, true
}
