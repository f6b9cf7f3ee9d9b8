package labapitest

import (
	"fmt"
	"net/http"
	"time"

	"environovalab/labapi"

	"github.com/go-chi/chi/v5"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var credentials labapi.Credentials
	readJSON(r, &credentials)

	s.mu.Lock()
	account := s.findAccount(credentials.Username)
	if account == nil || account.Password != credentials.Password {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Credenciales incorrectas")
		return
	}
	if !account.Active {
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "Cuenta inactiva. Contacta con el administrador.")
		return
	}
	sessionId := fmt.Sprintf("session-%s", s.newId())
	s.sessions[sessionId] = account.Username
	result := labapi.LoginResult{
		Msg:      "Login correcto",
		Username: account.Username,
		IsAdmin:  account.IsAdmin,
	}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: sessionId, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Sesión cerrada"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var registration labapi.Registration
	readJSON(r, &registration)
	if registration.Username == "" || registration.Email == "" || registration.Password == "" {
		writeError(w, http.StatusBadRequest, "Faltan campos requeridos")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == registration.Username {
			writeError(w, http.StatusBadRequest, "Usuario ya existe")
			return
		}
		if account.Email == registration.Email {
			writeError(w, http.StatusBadRequest, "Email ya está en uso")
			return
		}
	}
	s.accounts = append(s.accounts, &Account{
		Id:       s.newId(),
		Username: registration.Username,
		Email:    registration.Email,
		Password: registration.Password,
		Active:   true,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"msg": "Usuario creado correctamente"})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	readJSON(r, &body)
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "El campo correo electrónico es requerido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Email == body.Email {
			token := fmt.Sprintf("reset-%s", s.newId())
			s.resetTokens[token] = account.Username
			writeJSON(w, http.StatusOK, map[string]string{
				"msg": "Correo enviado. Revisa tu correo para recuperar tu cuenta.",
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Usuario no encontrado con ese correo")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	readJSON(r, &body)
	token := chi.URLParam(r, "token")

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.resetTokens[token]
	if !ok {
		writeError(w, http.StatusBadRequest, "Token inválido o expirado")
		return
	}
	if account := s.findAccount(username); account != nil {
		account.Password = body.Password
	}
	delete(s.resetTokens, token)
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Contraseña actualizada correctamente"})
}

func (s *Server) currentSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) listSampleTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.SampleTypes())
}

func (s *Server) searchSampleTypes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result := []labapi.SampleType{}
	if len([]rune(query)) >= 2 {
		for _, sampleType := range s.SampleTypes() {
			if containsFold(sampleType.Parameter, query) && len(result) < 10 {
				result = append(result, sampleType)
			}
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func sampleTypeErrors(sampleType labapi.SampleType) map[string][]string {
	errors := map[string][]string{}
	required := map[string]string{
		"tipo":      sampleType.Type,
		"parametro": sampleType.Parameter,
		"unidad":    sampleType.Unit,
		"metodo":    sampleType.Method,
		"tecnica":   sampleType.Technique,
	}
	for field, value := range required {
		if value == "" {
			errors[field] = []string{"Este campo es requerido."}
		}
	}
	return errors
}

func (s *Server) createSampleType(w http.ResponseWriter, r *http.Request) {
	var sampleType labapi.SampleType
	if !readJSON(r, &sampleType) {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if errors := sampleTypeErrors(sampleType); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, errors)
		return
	}
	writeJSON(w, http.StatusCreated, s.AddSampleType(sampleType))
}

func (s *Server) getSampleType(w http.ResponseWriter, r *http.Request) {
	id := labapi.ObjectId(chi.URLParam(r, "id"))
	for _, sampleType := range s.SampleTypes() {
		if sampleType.Id == id {
			writeJSON(w, http.StatusOK, sampleType)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Tipo de muestra no encontrado"})
}

func (s *Server) updateSampleType(w http.ResponseWriter, r *http.Request) {
	id := labapi.ObjectId(chi.URLParam(r, "id"))
	var update labapi.SampleType
	if !readJSON(r, &update) {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if errors := sampleTypeErrors(update); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, errors)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sampleTypes {
		if s.sampleTypes[i].Id == id {
			update.Id = id
			s.sampleTypes[i] = update
			writeJSON(w, http.StatusOK, update)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Tipo de muestra no encontrado"})
}

func (s *Server) deleteSampleType(w http.ResponseWriter, r *http.Request) {
	id := labapi.ObjectId(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sampleTypes {
		if s.sampleTypes[i].Id == id {
			s.sampleTypes = append(s.sampleTypes[:i], s.sampleTypes[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Tipo de muestra no encontrado"})
}

func (s *Server) labClients() []labapi.LabClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]labapi.LabClient{}, s.clients...)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.labClients())
}

func (s *Server) searchClients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result := []labapi.LabClient{}
	if len([]rune(query)) >= 2 {
		for _, client := range s.labClients() {
			if (containsFold(client.Name, query) || containsFold(client.Ruc, query)) && len(result) < 10 {
				result = append(result, labapi.LabClient{Id: client.Id, Name: client.Name, Ruc: client.Ruc})
			}
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var client labapi.LabClient
	readJSON(r, &client)
	if client.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"Este campo es requerido."}})
		return
	}
	writeJSON(w, http.StatusCreated, s.AddLabClient(client))
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := []labapi.Analysis{}
	for _, proforma := range s.proformas {
		result = append(result, proforma.Analyses...)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) reorderAnalyses(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AnalysisOrders []labapi.AnalysisOrder `json:"analysis_orders"`
	}
	readJSON(r, &body)

	s.mu.Lock()
	for _, order := range body.AnalysisOrders {
		for _, proforma := range s.proformas {
			for i := range proforma.Analyses {
				if proforma.Analyses[i].Id == order.Id {
					proforma.Analyses[i].Order = order.Order
				}
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Orden actualizado exitosamente"})
}

// Callers hold s.mu
func (s *Server) findProforma(id labapi.ObjectId) *labapi.Proforma {
	for _, proforma := range s.proformas {
		if proforma.Id == id {
			return proforma
		}
	}
	return nil
}

// Callers hold s.mu
func (s *Server) findClient(id labapi.ObjectId) *labapi.LabClient {
	for i := range s.clients {
		if s.clients[i].Id == id {
			return &s.clients[i]
		}
	}
	return nil
}

// Callers hold s.mu
func (s *Server) addAnalysisLocked(proforma *labapi.Proforma, input labapi.AnalysisInput) {
	proforma.Analyses = append(proforma.Analyses, labapi.Analysis{
		Id:        s.newId(),
		Parameter: input.Parameter,
		Unit:      input.Unit,
		Method:    input.Method,
		Technique: input.Technique,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		Subtotal:  input.Subtotal(),
		Order:     len(proforma.Analyses),
	})
	recalculateTotals(proforma)
}

func recalculateTotals(proforma *labapi.Proforma) {
	var subtotal labapi.Price
	for _, analysis := range proforma.Analyses {
		subtotal += analysis.Subtotal
	}
	proforma.Subtotal = subtotal
	proforma.TaxAmount = (subtotal*12 + 50) / 100
	proforma.Total = proforma.Subtotal + proforma.TaxAmount
}

func (s *Server) listProformas(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := []labapi.Proforma{}
	for _, proforma := range s.proformas {
		result = append(result, *proforma)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createProforma(w http.ResponseWriter, r *http.Request) {
	var input labapi.NewProforma
	if !readJSON(r, &input) {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if _, err := time.Parse(time.RFC3339, input.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"date": {"Formato de fecha inválido."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	client := s.findClient(input.ClientId)
	if client == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"client": {"Cliente no encontrado."}})
		return
	}
	proforma := &labapi.Proforma{
		Id:         s.newId(),
		ClientId:   client.Id,
		ClientName: client.Name,
		ClientRuc:  client.Ruc,
		Number:     fmt.Sprintf("PRF-%04d", s.nextNumber),
		Date:       input.Date,
		Status:     input.Status,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  input.Date,
		Analyses:   []labapi.Analysis{},
	}
	s.nextNumber++
	proforma.StatusDisplay = proforma.Status.Label()
	for _, analysis := range input.AnalysisData {
		s.addAnalysisLocked(proforma, analysis)
	}
	recalculateTotals(proforma)
	s.proformas = append(s.proformas, proforma)
	writeJSON(w, http.StatusCreated, *proforma)
}

func (s *Server) getProforma(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proforma := s.findProforma(labapi.ObjectId(chi.URLParam(r, "id")))
	if proforma == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proforma no encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, *proforma)
}

func (s *Server) addAnalysis(w http.ResponseWriter, r *http.Request) {
	var input labapi.AnalysisInput
	readJSON(r, &input)

	s.mu.Lock()
	defer s.mu.Unlock()
	proforma := s.findProforma(labapi.ObjectId(chi.URLParam(r, "id")))
	if proforma == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proforma no encontrada"})
		return
	}
	s.addAnalysisLocked(proforma, input)
	writeJSON(w, http.StatusCreated, *proforma)
}

func (s *Server) removeAnalysis(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AnalysisId labapi.ObjectId `json:"analysis_id"`
	}
	readJSON(r, &body)
	if body.AnalysisId == "" {
		writeError(w, http.StatusBadRequest, "analysis_id requerido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	proforma := s.findProforma(labapi.ObjectId(chi.URLParam(r, "id")))
	if proforma == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proforma no encontrada"})
		return
	}
	for i := range proforma.Analyses {
		if proforma.Analyses[i].Id == body.AnalysisId {
			proforma.Analyses = append(proforma.Analyses[:i], proforma.Analyses[i+1:]...)
			recalculateTotals(proforma)
			writeJSON(w, http.StatusOK, *proforma)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Análisis no encontrado")
}

func (s *Server) informeData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proforma := s.findProforma(labapi.ObjectId(chi.URLParam(r, "id")))
	if proforma == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proforma no encontrada"})
		return
	}
	data := labapi.InformeData{
		ProformaNumber: proforma.Number,
		Date:           proforma.Date,
		CreatedBy:      proforma.CreatedBy,
		ClientName:     proforma.ClientName,
		ClientRuc:      proforma.ClientRuc,
	}
	if client := s.findClient(proforma.ClientId); client != nil {
		data.ClientAddress = client.Address
		data.ClientEmail = client.Email
		data.ClientContact = client.ContactPerson
	}
	for _, analysis := range proforma.Analyses {
		data.AnalysisData = append(data.AnalysisData, labapi.InformeAnalysis{
			Parameter: analysis.Parameter,
			Unit:      analysis.Unit,
			Method:    analysis.Method,
		})
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) proformaPdf(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	proforma := s.findProforma(labapi.ObjectId(chi.URLParam(r, "id")))
	var number string
	if proforma != nil {
		number = proforma.Number
	}
	s.mu.Unlock()
	if proforma == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Proforma no encontrada"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, number))
	_, _ = w.Write([]byte("%PDF-1.4 " + number))
}

func (s *Server) listInformes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := []labapi.Informe{}
	for _, informe := range s.informes {
		informe.Results = nil
		result = append(result, informe)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createInforme(w http.ResponseWriter, r *http.Request) {
	var informe labapi.Informe
	if !readJSON(r, &informe) {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findProforma(informe.ProformaId) == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"proforma": {"Proforma no encontrada."}})
		return
	}
	informe.Id = s.newId()
	for i := range informe.Results {
		informe.Results[i].Id = s.newId()
	}
	s.informes = append(s.informes, informe)
	writeJSON(w, http.StatusCreated, informe)
}

func (s *Server) informeResults(w http.ResponseWriter, r *http.Request) {
	id := labapi.ObjectId(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, informe := range s.informes {
		if informe.Id == id {
			results := informe.Results
			if results == nil {
				results = []labapi.Result{}
			}
			writeJSON(w, http.StatusOK, results)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Informe no encontrado"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := []labapi.User{}
	for _, account := range s.accounts {
		result = append(result, labapi.User{
			Id:       account.Id,
			Username: account.Username,
			Email:    account.Email,
			IsAdmin:  account.IsAdmin,
			Active:   account.Active,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var user labapi.NewUser
	readJSON(r, &user)
	if user.Username == "" || user.Email == "" || user.Password == "" {
		writeError(w, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}

	s.mu.Lock()
	s.accounts = append(s.accounts, &Account{
		Id:       s.newId(),
		Username: user.Username,
		Email:    user.Email,
		Password: user.Password,
		IsAdmin:  user.IsAdmin,
		Active:   true,
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"msg": "Usuario creado correctamente"})
}

// Callers hold s.mu
func (s *Server) findAccountById(id labapi.ObjectId) *Account {
	for _, account := range s.accounts {
		if account.Id == id {
			return account
		}
	}
	return nil
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsAdmin bool `json:"is_admin"`
	}
	readJSON(r, &body)

	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.findAccountById(labapi.ObjectId(chi.URLParam(r, "id")))
	if account == nil {
		writeError(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	account.IsAdmin = body.IsAdmin
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Rol actualizado correctamente"})
}

func (s *Server) toggleActive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.findAccountById(labapi.ObjectId(chi.URLParam(r, "id")))
	if account == nil {
		writeError(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	account.Active = !account.Active
	state := "inactivo"
	if account.Active {
		state = "activo"
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": fmt.Sprintf("Usuario ahora está %s", state)})
}
