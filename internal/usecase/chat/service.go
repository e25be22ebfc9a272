package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/metrics"
)

const (
	fallbackReply = "Tive um problema ao gerar a resposta agora. Pode tentar de novo?"

	clarifyReply = "Não reconheci nenhum alimento nessa descrição. 🤔 " +
		"Tente descrever de outra forma, por exemplo: \"2 ovos e 100 g de arroz\"."

	imageFallbackReply = "Recebi sua foto! ✅ Não consegui analisar a imagem agora. " +
		"Se preferir, descreva o que comeu que eu estimo as calorias. 🍽️"

	unsupportedReply = "Mensagem recebida! ✅ Esse formato ainda não é suportado. " +
		"Me mande texto ou uma foto da refeição."

	emptyLogReply = "Você ainda não registrou nada hoje. Me conte o que comeu! 🍽️"
)

var (
	summaryRe    = regexp.MustCompile(`^(total|resumo|diário|diario)\b`)
	mealIntentRe = regexp.MustCompile(`^(comi|almocei|jantei|lanchei|bebi)\b|café da manhã|cafe da manha`)
)

// Service orchestrates one webhook delivery end to end: classify, estimate
// or ask the model, then dispatch the reply. Every failure is contained
// here; nothing propagates back to the webhook acknowledgment.
type Service struct {
	store     domain.SessionStore
	estimator domain.Estimator
	messenger domain.Messenger
	media     domain.MediaFetcher
	replier   domain.Replier
	log       zerolog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewService creates the chat service.
func NewService(store domain.SessionStore, estimator domain.Estimator, messenger domain.Messenger, media domain.MediaFetcher, replier domain.Replier, logger zerolog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		estimator: estimator,
		messenger: messenger,
		media:     media,
		replier:   replier,
		log:       logger,
		loc:       loc,
		now:       time.Now,
	}
}

// HandleMessage processes one normalized inbound message.
func (s *Service) HandleMessage(ctx context.Context, msg domain.IncomingMessage) {
	logger := s.log.With().Str("sender", msg.SenderID).Str("kind", string(msg.Kind)).Logger()
	switch msg.Kind {
	case domain.KindText:
		s.handleText(ctx, logger, msg)
	case domain.KindImage:
		s.handleImage(ctx, logger, msg)
	default:
		s.dispatch(ctx, logger, msg.SenderID, unsupportedReply)
	}
}

func (s *Service) handleText(ctx context.Context, logger zerolog.Logger, msg domain.IncomingMessage) {
	normalized := strings.ToLower(strings.TrimSpace(msg.Text))
	if summaryRe.MatchString(normalized) {
		s.sendSummary(ctx, logger, msg.SenderID)
		return
	}

	est := s.estimator.Estimate(msg.Text)
	if len(est.Entries) > 0 {
		metrics.EstimatorMatches.Inc()
		s.logMeal(ctx, logger, msg.SenderID, est)
		return
	}
	metrics.EstimatorMisses.Inc()

	if mealIntentRe.MatchString(normalized) {
		s.dispatch(ctx, logger, msg.SenderID, clarifyReply)
		return
	}

	history, err := s.store.History(ctx, msg.SenderID)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable")
	}
	reply, err := s.replier.Reply(ctx, msg.Text, history)
	if err != nil {
		logger.Warn().Err(err).Msg("reply generation failed")
		s.dispatch(ctx, logger, msg.SenderID, fallbackReply)
		return
	}
	if err := s.store.AppendHistory(ctx, msg.SenderID,
		domain.ChatTurn{Role: domain.TurnUser, Content: msg.Text},
		domain.ChatTurn{Role: domain.TurnAssistant, Content: reply},
	); err != nil {
		logger.Warn().Err(err).Msg("history append failed")
	}
	s.dispatch(ctx, logger, msg.SenderID, reply)
}

func (s *Service) logMeal(ctx context.Context, logger zerolog.Logger, senderID string, est domain.Estimate) {
	day := s.today()
	dayLog, err := s.store.DailyLog(ctx, senderID, day)
	if err != nil {
		logger.Warn().Err(err).Msg("daily log unavailable, starting fresh")
		dayLog = domain.DailyLog{Date: day}
	}
	dayLog.Append(est.Entries...)
	if err := s.store.SaveDailyLog(ctx, senderID, dayLog); err != nil {
		logger.Warn().Err(err).Msg("daily log save failed")
	}

	var b strings.Builder
	b.WriteString("🍽️ Registrado:\n")
	for _, entry := range est.Entries {
		fmt.Fprintf(&b, "• %s %s de %s — %s kcal\n", formatQty(entry.Quantity), entry.Unit, entry.Label, formatQty(entry.Kcal))
	}
	fmt.Fprintf(&b, "Total de hoje: %s kcal", formatQty(dayLog.TotalKcal))
	s.dispatch(ctx, logger, senderID, b.String())
}

func (s *Service) sendSummary(ctx context.Context, logger zerolog.Logger, senderID string) {
	dayLog, err := s.store.DailyLog(ctx, senderID, s.today())
	if err != nil {
		logger.Warn().Err(err).Msg("daily log unavailable")
		s.dispatch(ctx, logger, senderID, fallbackReply)
		return
	}
	if len(dayLog.Entries) == 0 {
		s.dispatch(ctx, logger, senderID, emptyLogReply)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📒 Resumo de %s:\n", dayLog.Date)
	for _, entry := range dayLog.Entries {
		fmt.Fprintf(&b, "• %s %s de %s — %s kcal\n", formatQty(entry.Quantity), entry.Unit, entry.Label, formatQty(entry.Kcal))
	}
	fmt.Fprintf(&b, "Total: %s kcal", formatQty(dayLog.TotalKcal))
	s.dispatch(ctx, logger, senderID, b.String())
}

func (s *Service) handleImage(ctx context.Context, logger zerolog.Logger, msg domain.IncomingMessage) {
	data, mimeType, err := s.media.DownloadMedia(ctx, msg.MediaRef)
	if err != nil {
		logger.Warn().Err(err).Str("media", msg.MediaRef).Msg("media download failed")
		s.dispatch(ctx, logger, msg.SenderID, imageFallbackReply)
		return
	}
	description, err := s.replier.DescribeImage(ctx, data, mimeType)
	if err != nil {
		logger.Warn().Err(err).Msg("image description failed")
		s.dispatch(ctx, logger, msg.SenderID, imageFallbackReply)
		return
	}
	s.dispatch(ctx, logger, msg.SenderID, description)
}

// dispatch sends the reply and swallows failures: when every variant is
// exhausted the user simply gets no reply for this turn and the attempt
// trail stays in the log.
func (s *Service) dispatch(ctx context.Context, logger zerolog.Logger, senderID, body string) {
	result, err := s.messenger.SendText(ctx, senderID, body)
	if err != nil {
		logger.Error().Err(err).Int("attempts", len(result.Attempts)).Msg("reply not delivered")
		return
	}
	logger.Debug().Str("variant", result.Variant).Msg("reply delivered")
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
