package server

import (
	"errors"

	"github.com/ValentinKolb/dLedger/lib/store"
	"github.com/ValentinKolb/dLedger/rpc/common"
)

// NewBookieServerAdapter creates the adapter that serves adds and reads from a
// ledger store. A read only adapter rejects all adds with EREADONLY.
func NewBookieServerAdapter(readOnly bool) IRPCServerAdapter {
	return &bookieServerAdapterImpl{readOnly: readOnly}
}

type bookieServerAdapterImpl struct {
	readOnly bool
}

func (adapter *bookieServerAdapterImpl) Handle(req common.Request, s store.ILedgerStore) *common.Response {
	switch r := req.(type) {
	case *common.AddRequest:
		return common.NewAddResponse(adapter.handleAdd(r, s), r.LedgerID, r.EntryID)

	case *common.ReadRequest:
		if !supportedVersion(r.ProtocolVersion) {
			return common.NewReadResponse(common.EBADVERSION, r.LedgerID, r.EntryID, nil)
		}
		if s == nil {
			return common.NewReadResponse(common.EIO, r.LedgerID, r.EntryID, nil)
		}
		if r.IsFencing() {
			if err := s.Fence(r.LedgerID, r.MasterKey); err != nil {
				Logger.Warningf("Fencing ledger %d failed: %v", r.LedgerID, err)
				return common.NewReadResponse(statusOf(err), r.LedgerID, r.EntryID, nil)
			}
			Logger.Infof("Fenced ledger %d", r.LedgerID)
		}
		entryID, data, err := s.ReadEntry(r.LedgerID, r.EntryID)
		if err != nil {
			return common.NewReadResponse(statusOf(err), r.LedgerID, entryID, nil)
		}
		return common.NewReadResponse(common.EOK, r.LedgerID, entryID, data)

	default:
		Logger.Errorf("RPC BookieAdapter - Unsupported request type: %T", req)
		return &common.Response{
			ProtocolVersion: common.CurrentProtocolVersion,
			OpCode:          common.OpUnknown,
			Status:          common.EBADREQ,
		}
	}
}

func (adapter *bookieServerAdapterImpl) handleAdd(r *common.AddRequest, s store.ILedgerStore) common.Status {
	switch {
	case !supportedVersion(r.ProtocolVersion):
		return common.EBADVERSION
	case adapter.readOnly:
		return common.EREADONLY
	case s == nil:
		return common.EIO
	}
	if err := s.AddEntry(r.LedgerID, r.EntryID, r.MasterKey, r.Data, r.IsRecoveryAdd()); err != nil {
		Logger.Debugf("Add of entry %d to ledger %d failed: %v", r.EntryID, r.LedgerID, err)
		return statusOf(err)
	}
	return common.EOK
}

// supportedVersion checks a request version against the versions this bookie speaks
func supportedVersion(v byte) bool {
	return v >= common.LowestCompatibleProtocolVersion && v <= common.CurrentProtocolVersion
}

// statusOf maps a store error to its wire status
func statusOf(err error) common.Status {
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return common.EIO
	}
	switch storeErr.Code {
	case store.RetCSuccess:
		return common.EOK
	case store.RetCNoLedger:
		return common.ENOLEDGER
	case store.RetCNoEntry:
		return common.ENOENTRY
	case store.RetCFenced:
		return common.EFENCED
	case store.RetCUnauthorized:
		return common.EUA
	default:
		return common.EIO
	}
}
