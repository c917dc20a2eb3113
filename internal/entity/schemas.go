// Package entity declares the dashboard's entity schemas: which raw keys
// carry each canonical field, how records are keyed and which entity
// rules run after mapping.
package entity

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/recon-dashboard/internal/recon"
)

// Entity names.
const (
	Benefit  = "benefit"
	Dispatch = "dispatch"
	History  = "history"
	Channel  = "channel"
)

// Canonical field names shared by several entities.
const (
	FieldName          = "name"
	FieldDocument      = "document"
	FieldBenefitNumber = "benefitNumber"
	FieldLogin         = "login"
	FieldStatus        = "status"
	FieldMessage       = "message"
	FieldUpdatedAt     = "updatedAt"
)

// ClientBenefit fields.
const (
	FieldBenefitType     = "benefitType"
	FieldBank            = "bank"
	FieldBenefitValue    = "benefitValue"
	FieldAvailableMargin = "availableMargin"
	FieldBirthDate       = "birthDate"
)

// Dispatch tracking fields.
const (
	FieldPhone       = "phone"
	FieldContactName = "contactName"
	FieldCampaign    = "campaign"
	FieldChannel     = "channel"
	FieldTemplate    = "template"
	FieldSendStatus  = "sendStatus"
	FieldErrorDetail = "errorDetail"
	FieldSentAt      = "sentAt"
)

// History fields.
const FieldConsultedAt = "consultedAt"

// Channel phone fields.
const (
	FieldPhoneID        = "phoneId"
	FieldDisplayPhone   = "displayPhone"
	FieldChannelName    = "channelName"
	FieldQuality        = "quality"
	FieldBMID           = "bmId"
	FieldBMName         = "bmName"
	FieldBMVerification = "bmVerification"
	FieldMessagingLimit = "messagingLimit"
)

// NoTemplateLabel is shown for dispatch rows sent without a template.
const NoTemplateLabel = "Sem template"

// Raw key candidates reused across entities, most specific first.
var (
	nameKeys     = []string{"nome", "nome_cliente", "cliente", "name", "customer_name", "nomeCliente"}
	documentKeys = []string{"cpf", "documento", "document", "cpf_cnpj", "cnpj", "doc"}
	benefitKeys  = []string{"beneficio", "numero_beneficio", "nb", "benefit_number", "benefitNumber", "matricula"}
	loginKeys    = []string{"login", "usuario", "user", "operador", "operator"}
	messageKeys  = []string{"mensagem", "message", "msg", "retorno", "descricao"}
	updatedKeys  = []string{"updated_at", "updatedAt", "data_atualizacao", "atualizado_em", "last_update", "timestamp"}
)

var benefitSchema = recon.Schema{
	Entity: Benefit,
	Fields: recon.FieldTable{
		{Name: FieldName, Candidates: nameKeys},
		{Name: FieldDocument, Candidates: documentKeys},
		{Name: FieldBenefitNumber, Candidates: benefitKeys},
		{Name: FieldLogin, Candidates: loginKeys},
		{Name: FieldBenefitType, Candidates: []string{"especie", "tipo_beneficio", "benefit_type", "especie_beneficio"}},
		{Name: FieldBank, Candidates: []string{"banco", "bank", "banco_pagador", "instituicao"}},
		{Name: FieldStatus, Candidates: []string{"status", "situacao", "situacao_beneficio"}},
		{Name: FieldMessage, Candidates: messageKeys},
		{Name: FieldBenefitValue, Candidates: []string{"valor_beneficio", "valor", "benefit_value", "salario"}, Kind: recon.KindNumber},
		{Name: FieldAvailableMargin, Candidates: []string{"margem_disponivel", "margem", "available_margin", "margin"}, Kind: recon.KindNumber},
		{Name: FieldBirthDate, Candidates: []string{"data_nascimento", "nascimento", "birth_date", "birthDate", "dt_nascimento"}, Kind: recon.KindDate},
		{Name: FieldUpdatedAt, Candidates: append(append([]string(nil), updatedKeys...), "data_consulta", "consultado_em"), Kind: recon.KindDate},
	},
	Key: recon.KeySpec{
		Primary: []recon.KeyPart{
			{Field: FieldDocument, Norm: recon.Digits},
			{Field: FieldBenefitNumber, Norm: recon.Digits},
			{Field: FieldLogin, Norm: recon.Lower},
		},
		Fallback: []recon.KeyPart{
			{Field: FieldUpdatedAt, Norm: recon.Minute},
			{Field: FieldStatus, Norm: recon.Lower},
			{Field: FieldMessage, Norm: recon.Lower},
		},
	},
	Timestamp: FieldUpdatedAt,
	Finalize:  finalizeBenefit,
}

var dispatchSchema = recon.Schema{
	Entity: Dispatch,
	Fields: recon.FieldTable{
		{Name: FieldPhone, Candidates: []string{"telefone", "phone", "numero", "whatsapp", "celular", "to", "wa_id"}},
		{Name: FieldContactName, Candidates: append([]string{"contato", "contact_name", "contactName"}, nameKeys...)},
		{Name: FieldCampaign, Candidates: []string{"campanha", "campaign", "nome_campanha", "campaign_name"}},
		{Name: FieldChannel, Candidates: []string{"canal", "channel", "numero_envio", "sender"}},
		{Name: FieldTemplate, Candidates: []string{"template", "template_name", "nome_template", "modelo"}},
		{Name: FieldSendStatus, Candidates: []string{"status_envio", "send_status", "sendStatus", "status"}, Kind: recon.KindStatus, Taxonomy: recon.DispatchStatus},
		{Name: FieldMessage, Candidates: messageKeys},
		{Name: FieldErrorDetail, Candidates: []string{"erro", "error", "error_detail", "motivo", "reason"}},
		{Name: FieldSentAt, Candidates: []string{"data_envio", "enviado_em", "sent_at", "sentAt", "created_at", "data"}, Kind: recon.KindDate},
		{Name: FieldUpdatedAt, Candidates: append(append([]string(nil), updatedKeys...), "data_envio", "enviado_em", "sent_at", "sentAt", "created_at"), Kind: recon.KindDate},
	},
	Key: recon.KeySpec{
		Primary: []recon.KeyPart{
			{Field: FieldPhone, Norm: recon.Digits},
			{Field: FieldCampaign, Norm: recon.Lower},
			{Field: FieldSentAt, Norm: recon.Minute},
		},
		Fallback: []recon.KeyPart{
			{Field: FieldUpdatedAt, Norm: recon.Minute},
			{Field: FieldSendStatus, Norm: recon.Lower},
			{Field: FieldMessage, Norm: recon.Lower},
		},
	},
	Timestamp: FieldUpdatedAt,
	Finalize:  finalizeDispatch,
}

var historySchema = recon.Schema{
	Entity: History,
	Fields: recon.FieldTable{
		{Name: FieldName, Candidates: nameKeys},
		{Name: FieldDocument, Candidates: documentKeys},
		{Name: FieldBenefitNumber, Candidates: benefitKeys},
		{Name: FieldLogin, Candidates: loginKeys},
		{Name: FieldStatus, Candidates: []string{"status", "situacao", "resultado"}},
		{Name: FieldMessage, Candidates: messageKeys},
		{Name: FieldConsultedAt, Candidates: append([]string{"data_consulta", "consultado_em", "consulted_at", "consultedAt", "data_hora", "created_at"}, updatedKeys...), Kind: recon.KindDate},
	},
	Key: recon.KeySpec{
		Primary: []recon.KeyPart{
			{Field: FieldName, Norm: recon.Lower},
			{Field: FieldConsultedAt, Norm: recon.Minute},
			{Field: FieldDocument, Norm: recon.Digits},
		},
		Fallback: []recon.KeyPart{
			{Field: FieldConsultedAt, Norm: recon.Minute},
			{Field: FieldStatus, Norm: recon.Lower},
			{Field: FieldMessage, Norm: recon.Lower},
		},
	},
	Timestamp: FieldConsultedAt,
	Finalize:  finalizeHistory,
}

var channelSchema = recon.Schema{
	Entity: Channel,
	Fields: recon.FieldTable{
		{Name: FieldPhoneID, Candidates: []string{"id", "phone_number_id", "phone_id", "phoneId"}},
		{Name: FieldDisplayPhone, Candidates: []string{"display_phone_number", "display_phone", "displayPhone", "telefone", "phone"}},
		{Name: FieldChannelName, Candidates: []string{"canal", "channel", "channel_name", "verified_name", "nome"}},
		{Name: FieldStatus, Candidates: []string{"status", "code_verification_status", "connection_status", "situacao"}, Kind: recon.KindStatus, Taxonomy: recon.PhoneStatus},
		{Name: FieldQuality, Candidates: []string{"quality_rating", "quality", "qualidade", "quality_score"}, Kind: recon.KindStatus, Taxonomy: recon.Quality},
		{Name: FieldBMID, Candidates: []string{"bm_id", "business_id", "bmId", "business_manager_id"}},
		{Name: FieldBMName, Candidates: []string{"bm_name", "business_name", "bmName", "business_manager"}},
		{Name: FieldBMVerification, Candidates: []string{"business_verification_status", "bm_verification", "verification_status", "bmVerification"}, Kind: recon.KindStatus, Taxonomy: recon.BMVerification},
		{Name: FieldMessagingLimit, Candidates: []string{"whatsapp_limit", "messaging_limit_tier", "messaging_limit", "limite", "tier"}},
		{Name: FieldUpdatedAt, Candidates: append(append([]string(nil), updatedKeys...), "last_onboarded_time"), Kind: recon.KindDate},
	},
	Key: recon.KeySpec{
		Primary: []recon.KeyPart{
			{Field: FieldPhoneID, Norm: recon.Digits},
			{Field: FieldDisplayPhone, Norm: recon.Digits},
			{Field: FieldBMID, Norm: recon.Digits},
		},
		Fallback: []recon.KeyPart{
			{Field: FieldUpdatedAt, Norm: recon.Minute},
			{Field: FieldStatus, Norm: recon.Lower},
			{Field: FieldChannelName, Norm: recon.Lower},
		},
	},
	Timestamp: FieldUpdatedAt,
}

var registry = map[string]recon.Schema{
	Benefit:  benefitSchema,
	Dispatch: dispatchSchema,
	History:  historySchema,
	Channel:  channelSchema,
}

// Lookup returns the schema registered under name. Names are matched
// case-insensitively.
func Lookup(name string) (recon.Schema, bool) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names returns the registered entity names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BenefitSchema, DispatchSchema, HistorySchema and ChannelSchema return the
// built-in schemas.
func BenefitSchema() recon.Schema  { return benefitSchema }
func DispatchSchema() recon.Schema { return dispatchSchema }
func HistorySchema() recon.Schema  { return historySchema }
func ChannelSchema() recon.Schema  { return channelSchema }

// finalizeDispatch forces sendStatus to no_template when the row carries
// no template, whatever the upstream status said.
func finalizeDispatch(r *recon.Record) {
	if r.Get(FieldTemplate).Known {
		return
	}
	r.Fields[FieldSendStatus] = recon.StatusValue(recon.NoTemplate)
	r.Fields[FieldTemplate] = recon.TextValue(NoTemplateLabel)
}

func finalizeBenefit(r *recon.Record) {
	titleName(r, FieldName)
	formatDocument(r)
}

func finalizeHistory(r *recon.Record) {
	titleName(r, FieldName)
	formatDocument(r)
}

// titleName renders upper-case registry names ("MARIA DA SILVA") in title
// case. Caser values keep state, so one is built per call.
func titleName(r *recon.Record, field string) {
	v := r.Get(field)
	if !v.Known {
		return
	}
	c := cases.Title(language.BrazilianPortuguese)
	r.Fields[field] = recon.TextValue(c.String(strings.ToLower(v.Text)))
}

// formatDocument renders 11-digit CPFs as 000.000.000-00. Anything else is
// left as received.
func formatDocument(r *recon.Record) {
	v := r.Get(FieldDocument)
	if !v.Known {
		return
	}
	d := recon.DigitsOnly(v.Text)
	if len(d) != 11 {
		return
	}
	r.Fields[FieldDocument] = recon.TextValue(d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:])
}
