package export

import (
	"archive/zip"
	"encoding/csv"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/frahmantamala/club-ledger/internal/expense"
)

// BillStore opens uploaded bill files by name.
type BillStore interface {
	Open(name string) (io.ReadCloser, error)
}

// DirBillStore reads bills from a local directory. Names are reduced to
// their base so a stored name can never escape the directory.
type DirBillStore struct {
	Dir string
}

func (d DirBillStore) Open(name string) (io.ReadCloser, error) {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) {
		return nil, fs.ErrNotExist
	}
	return os.Open(filepath.Join(d.Dir, base))
}

const (
	billIncluded = "included"
	billMissing  = "missing"
	billNone     = "none"
)

// WriteBillsArchive zips the bill of every record under bills/ together with
// manifest.csv. Missing files are listed in the manifest, not fatal.
func WriteBillsArchive(w io.Writer, records []*expense.Expense, store BillStore) error {
	zw := zip.NewWriter(w)

	manifest := make([][]string, 0, len(records)+1)
	manifest = append(manifest, []string{"expense_id", "member_id", "amount", "status", "bill_file", "archive_path", "bill_status"})

	for _, e := range records {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.MemberID, 10),
			e.Amount.StringFixed(2),
			string(e.Status),
			optional(e.BillFileName),
			"",
			billNone,
		}
		if e.BillFileName != nil && *e.BillFileName != "" {
			path := "bills/" + strconv.FormatInt(e.ID, 10) + "_" + filepath.Base(*e.BillFileName)
			included, err := copyBill(zw, store, *e.BillFileName, path)
			if err != nil {
				return err
			}
			if included {
				row[5] = path
				row[6] = billIncluded
			} else {
				row[6] = billMissing
			}
		}
		manifest = append(manifest, row)
	}

	mw, err := zw.Create("manifest.csv")
	if err != nil {
		return err
	}
	cw := csv.NewWriter(mw)
	cw.UseCRLF = true
	if err := cw.WriteAll(manifest); err != nil {
		return err
	}
	return zw.Close()
}

func copyBill(zw *zip.Writer, store BillStore, name, path string) (bool, error) {
	if store == nil {
		return false, nil
	}
	src, err := store.Open(name)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = src.Close() }()

	dst, err := zw.Create(path)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return false, err
	}
	return true, nil
}
