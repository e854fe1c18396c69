package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		store       *mockStore
		analyzer    *mockAnalyzer
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		store = newMockStore()
		analyzer = newMockAnalyzer()
		auth = BasicAuth{}
	})

	// JustBeforeEach builds the server after each test has arranged its mocks
	JustBeforeEach(func() {
		service := NewServiceWithDeps(db, analyzer, store, discardLogger, &mockIDGenerator{id: "id1"}, &mockTimeSource{})
		server := NewServer(service, auth, discardLogger)
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	do := func(method, path string, body io.Reader, contentType string) *http.Response {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if auth.Username != "" {
			req.SetBasicAuth(auth.Username, auth.Password)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	decode := func(resp *http.Response, v interface{}) {
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	upload := func(filename, partType string, data []byte) *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if partType != "" {
			h.Set("Content-Type", partType)
		}
		part, err := mw.CreatePart(h)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())
		return do(http.MethodPost, "/api/receipts", &body, mw.FormDataContentType())
	}

	Describe("authentication", func() {
		When("credentials are configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "ana", Password: "s3cret"}
			})

			It("should accept the right credentials", func() {
				resp := do(http.MethodGet, "/api/receipts", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})

			It("should reject a request without credentials", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
				Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			})

			It("should reject a wrong password", func() {
				auth.Password = "wrong"
				resp := do(http.MethodGet, "/api/receipts", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Describe("CORS preflight", func() {
		It("should answer OPTIONS with no content", func() {
			resp := do(http.MethodOptions, "/api/receipts", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("DELETE"))
		})
	})

	Describe("handleListReceipts", func() {
		When("receipts exist", func() {
			BeforeEach(func() {
				db.receipts["id1"] = &Receipt{ID: "id1"}
				db.receipts["id2"] = &Receipt{ID: "id2"}
			})

			It("should return all receipts as JSON", func() {
				resp := do(http.MethodGet, "/api/receipts", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
				var receipts []*Receipt
				decode(resp, &receipts)
				Expect(receipts).To(HaveLen(2))
			})
		})

		When("no receipts exist", func() {
			It("should return an empty array", func() {
				resp := do(http.MethodGet, "/api/receipts", nil, "")
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON(`[]`))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("boom")
			})

			It("should return status Internal Server Error", func() {
				resp := do(http.MethodGet, "/api/receipts", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("handleUploadReceipt", func() {
		When("the upload succeeds", func() {
			It("should create the receipt", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var receipt Receipt
				decode(resp, &receipt)
				Expect(receipt.ID).To(Equal("id1"))
				Expect(receipt.ObjectKey).To(Equal("other/id1_nota.jpg"))
				Expect(receipt.Record.IssuerTaxID).To(Equal("11.222.333/0001-81"))
			})
		})

		When("the receipt was paid in cash", func() {
			BeforeEach(func() {
				analyzer.response = cashResponse()
			})

			It("should file the image under cash/", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				var receipt Receipt
				decode(resp, &receipt)
				Expect(receipt.ObjectKey).To(Equal("cash/id1_nota.jpg"))
				Expect(receipt.Record.PaymentMethod).To(Equal(extraction.PaymentCashOrInstant))
			})
		})

		When("the part has no content type", func() {
			It("should infer it from the extension", func() {
				resp := upload("scan.PDF", "", []byte("%PDF"))
				var receipt Receipt
				decode(resp, &receipt)
				Expect(receipt.ContentType).To(Equal("application/pdf"))
			})
		})

		When("relocation fails", func() {
			BeforeEach(func() {
				store.copyErr = errors.New("access denied")
			})

			It("should still create the receipt and report the failure", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var receipt Receipt
				decode(resp, &receipt)
				Expect(receipt.ObjectKey).To(Equal("id1_nota.jpg"))
				Expect(receipt.RelocationError).To(ContainSubstring("access denied"))
			})
		})

		When("analysis fails", func() {
			BeforeEach(func() {
				analyzer.analyzeErr = errors.New("provider unavailable")
			})

			It("should return a JSON error", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				decode(resp, &body)
				Expect(body["error"]).To(ContainSubstring("provider unavailable"))
			})
		})

		When("the receipt cannot be read", func() {
			BeforeEach(func() {
				analyzer.response = nil
			})

			It("should return status Bad Request", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("storing the upload fails", func() {
			BeforeEach(func() {
				store.putErr = errors.New("disk full at /var/receipts")
			})

			It("should return a generic Internal Server Error", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				var body map[string]string
				decode(resp, &body)
				Expect(body["error"]).To(Equal("Internal server error"))
			})
		})

		When("saving the receipt fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("database locked")
			})

			It("should return status Internal Server Error", func() {
				resp := upload("nota.jpg", "image/jpeg", []byte("jpeg"))
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var body bytes.Buffer
				mw := multipart.NewWriter(&body)
				Expect(mw.WriteField("note", "no file")).To(Succeed())
				Expect(mw.Close()).To(Succeed())
				resp := do(http.MethodPost, "/api/receipts", &body, mw.FormDataContentType())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleGetReceipt", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", ObjectKey: "other/id1_a.jpg"}
		})

		It("should return the receipt", func() {
			resp := do(http.MethodGet, "/api/receipts/id1", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var receipt Receipt
			decode(resp, &receipt)
			Expect(receipt.ObjectKey).To(Equal("other/id1_a.jpg"))
		})

		It("should return Not Found for unknown IDs", func() {
			resp := do(http.MethodGet, "/api/receipts/nope", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.getErr = errors.New("boom")
			})

			It("should return status Internal Server Error", func() {
				resp := do(http.MethodGet, "/api/receipts/id1", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("handleGetReceiptFile", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", ObjectKey: "cash/id1_a.png", ContentType: "image/png"}
			store.objects["cash/id1_a.png"] = []byte("png bytes")
		})

		It("should return the image with its content type", func() {
			resp := do(http.MethodGet, "/api/receipts/id1/file", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("png bytes"))
		})

		When("the image is missing", func() {
			BeforeEach(func() {
				delete(store.objects, "cash/id1_a.png")
			})

			It("should return Not Found", func() {
				resp := do(http.MethodGet, "/api/receipts/id1/file", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteReceipt", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", ObjectKey: "cash/id1_a.png"}
			store.objects["cash/id1_a.png"] = []byte("png bytes")
		})

		It("should delete the receipt and its image", func() {
			resp := do(http.MethodDelete, "/api/receipts/id1", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.receipts).To(BeEmpty())
			Expect(store.objects).To(BeEmpty())
		})

		It("should return Not Found for unknown IDs", func() {
			resp := do(http.MethodDelete, "/api/receipts/nope", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleExtract", func() {
		It("should return the resolved record", func() {
			payload := `{"documents":[{"fields":[{"label":"Pago em Dinheiro","value":"50","type_tag":"OTHER","confidence":95}]}]}`
			resp := do(http.MethodPost, "/api/extract", bytes.NewBufferString(payload), "application/json")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var record extraction.Record
			decode(resp, &record)
			Expect(record.PaymentMethod).To(Equal(extraction.PaymentCashOrInstant))
			Expect(record.TotalAmount).To(Equal("50"))
		})

		It("should reject payloads that are not analysis responses", func() {
			resp := do(http.MethodPost, "/api/extract", bytes.NewBufferString(`["not", "an", "object"]`), "application/json")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			var body map[string]string
			decode(resp, &body)
			Expect(body["error"]).To(ContainSubstring("invalid analysis response"))
		})
	})

	Describe("handleExport", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", ObjectKey: "cash/id1_a.png", Record: extraction.NewRecord()}
		})

		It("should return an xlsx workbook", func() {
			resp := do(http.MethodGet, "/api/export", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("receipts.xlsx"))

			f, err := excelize.OpenReader(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows("Receipts")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})
	})
})
