package calibration

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// Node names used inside the persisted files.
const (
	CameraMatrixNode = "cameraMatrix"
	DistCoeffsNode   = "distCoeffs"
)

// Default file names for the persisted intrinsics.
const (
	DefaultCameraMatrixFile = "camParameters.xml"
	DefaultDistCoeffsFile   = "distCoeffs.xml"
)

const openCVMatrixType = "opencv-matrix"

// storageDoc is the root of an OpenCV FileStorage XML document.
type storageDoc struct {
	XMLName xml.Name     `xml:"opencv_storage"`
	Nodes   []matrixNode `xml:",any"`
}

// matrixNode is one named opencv-matrix entry.
type matrixNode struct {
	XMLName xml.Name
	TypeID  string `xml:"type_id,attr"`
	Rows    int    `xml:"rows"`
	Cols    int    `xml:"cols"`
	Dt      string `xml:"dt"`
	Data    string `xml:"data"`
}

// EncodeMatrix writes m as a single named node of an OpenCV FileStorage XML
// document. Values are written with the shortest exact representation.
func EncodeMatrix(w io.Writer, name string, m mat.Matrix) error {
	r, c := m.Dims()
	values := make([]string, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			values = append(values, strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
	}
	doc := storageDoc{Nodes: []matrixNode{{
		XMLName: xml.Name{Local: name},
		TypeID:  openCVMatrixType,
		Rows:    r,
		Cols:    c,
		Dt:      "d",
		Data:    strings.Join(values, " "),
	}}}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "failed to write xml header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrapf(err, "failed to encode %s", name)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// DecodeMatrix reads the node called name from an OpenCV FileStorage XML
// document, including files written by OpenCV itself.
func DecodeMatrix(r io.Reader, name string) (*mat.Dense, error) {
	var doc storageDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "error parsing FileStorage XML")
	}
	for _, node := range doc.Nodes {
		if node.XMLName.Local != name {
			continue
		}
		if node.TypeID != "" && node.TypeID != openCVMatrixType {
			return nil, errors.Errorf("node %s has type %q, want %q", name, node.TypeID, openCVMatrixType)
		}
		if node.Rows <= 0 || node.Cols <= 0 {
			return nil, errors.Errorf("node %s has invalid shape %dx%d", name, node.Rows, node.Cols)
		}
		fields := strings.Fields(node.Data)
		if len(fields) != node.Rows*node.Cols {
			return nil, errors.Errorf("node %s declares %dx%d but has %d values", name, node.Rows, node.Cols, len(fields))
		}
		data := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "node %s value %d", name, i)
			}
			data[i] = v
		}
		return mat.NewDense(node.Rows, node.Cols, data), nil
	}
	return nil, errors.Errorf("node %s not found", name)
}

// FileStore keeps the camera matrix and the distortion coefficients in two
// separate FileStorage XML files.
type FileStore struct {
	CameraMatrixPath string
	DistCoeffsPath   string
}

// NewFileStore returns a store over the two given paths.
func NewFileStore(cameraMatrixPath, distCoeffsPath string) *FileStore {
	return &FileStore{CameraMatrixPath: cameraMatrixPath, DistCoeffsPath: distCoeffsPath}
}

// Save writes both files. The distortion vector is stored as a 1xN row.
// Both documents are encoded and staged next to their targets before either
// target is replaced, so a rejected save leaves the previous pair in place.
func (fs *FileStore) Save(in Intrinsics) error {
	if err := in.CheckValid(); err != nil {
		return err
	}
	if len(in.Distortion) == 0 {
		return errors.New("distortion vector is empty")
	}
	dist := mat.NewDense(1, len(in.Distortion), append([]float64(nil), in.Distortion...))

	var kBuf, dBuf bytes.Buffer
	if err := EncodeMatrix(&kBuf, CameraMatrixNode, in.CameraMatrix); err != nil {
		return err
	}
	if err := EncodeMatrix(&dBuf, DistCoeffsNode, dist); err != nil {
		return err
	}

	kTmp, err := stageFile(fs.CameraMatrixPath, kBuf.Bytes())
	if err != nil {
		return err
	}
	dTmp, err := stageFile(fs.DistCoeffsPath, dBuf.Bytes())
	if err != nil {
		return multierr.Combine(err, os.Remove(kTmp))
	}
	if err := os.Rename(kTmp, fs.CameraMatrixPath); err != nil {
		return multierr.Combine(errors.Wrapf(err, "failed to save %s", fs.CameraMatrixPath), os.Remove(kTmp), os.Remove(dTmp))
	}
	if err := os.Rename(dTmp, fs.DistCoeffsPath); err != nil {
		return multierr.Combine(errors.Wrapf(err, "failed to save %s", fs.DistCoeffsPath), os.Remove(dTmp))
	}
	return nil
}

// Load reads both files back.
func (fs *FileStore) Load() (Intrinsics, error) {
	k, err := readMatrixFile(fs.CameraMatrixPath, CameraMatrixNode)
	if err != nil {
		return Intrinsics{}, err
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return Intrinsics{}, errors.Errorf("%s: camera matrix must be 3x3, got %dx%d", fs.CameraMatrixPath, r, c)
	}
	d, err := readMatrixFile(fs.DistCoeffsPath, DistCoeffsNode)
	if err != nil {
		return Intrinsics{}, err
	}
	return Intrinsics{CameraMatrix: k, Distortion: flatten(d)}, nil
}

// stageFile writes data to a temp file in the directory of path and returns
// the temp file's name.
func stageFile(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", errors.Wrapf(err, "failed to save %s", path)
	}
	name := f.Name()
	_, werr := f.Write(data)
	if err := multierr.Combine(werr, f.Chmod(0o644), f.Close()); err != nil {
		return "", multierr.Combine(errors.Wrapf(err, "failed to save %s", path), os.Remove(name))
	}
	return name, nil
}

func readMatrixFile(path, name string) (*mat.Dense, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	defer f.Close()
	m, err := DecodeMatrix(f, name)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
