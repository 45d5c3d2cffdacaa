package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyDownload          = "download"
	KeyCancel            = "cancel"
	KeyCancelAll         = "cancel_all"
	KeyClearFinished     = "clear_finished"
	KeyReveal            = "reveal"
	KeyPlay              = "play"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyLanguage          = "language"
	KeyDownloadDirectory = "download_directory"
	KeyMaxConcurrent     = "max_concurrent"
	KeyAudioBitrate      = "audio_bitrate"
	KeySave              = "save"
	KeyBrowse            = "browse"
	KeyEnterURLs         = "enter_urls"
	KeySettingsSaved     = "settings_saved"
	KeyJobsAdded         = "jobs_added"
	KeyDownloadComplete  = "download_complete"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyInvalidURL        = "invalid_url"
	KeyPleaseEnterURL    = "please_enter_url"
	KeyAlreadyInQueue    = "already_in_queue"
	KeyNotifyOnComplete  = "notify_on_complete"
	KeyAutoScrollLogs    = "auto_scroll_logs"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		// Use system locale - simplified to English for now
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "TuneGrab",
		KeyDownload:          "Download",
		KeyCancel:            "Cancel",
		KeyCancelAll:         "Cancel All",
		KeyClearFinished:     "Clear Finished",
		KeyReveal:            "Show",
		KeyPlay:              "Play",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyLanguage:          "Language",
		KeyDownloadDirectory: "Download Directory",
		KeyMaxConcurrent:     "Simultaneous Downloads",
		KeyAudioBitrate:      "MP3 Bitrate",
		KeySave:              "Save",
		KeyBrowse:            "Browse",
		KeyEnterURLs:         "Paste YouTube URLs, one per line",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyJobsAdded:         "Added to queue",
		KeyDownloadComplete:  "Download complete",
		KeyErrorOpeningFile:  "Error opening file",
		KeyInvalidURL:        "No valid YouTube URLs found",
		KeyPleaseEnterURL:    "Please enter a URL",
		KeyAlreadyInQueue:    "Already in queue",
		KeyNotifyOnComplete:  "Notify when a download finishes",
		KeyAutoScrollLogs:    "Follow log output",
	}

	// Portuguese texts
	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "TuneGrab",
		KeyDownload:          "Baixar",
		KeyCancel:            "Cancelar",
		KeyCancelAll:         "Cancelar Tudo",
		KeyClearFinished:     "Limpar Concluídos",
		KeyReveal:            "Mostrar",
		KeyPlay:              "Tocar",
		KeySettings:          "Configurações",
		KeyFile:              "Arquivo",
		KeyLanguage:          "Idioma",
		KeyDownloadDirectory: "Diretório de Download",
		KeyMaxConcurrent:     "Downloads Simultâneos",
		KeyAudioBitrate:      "Bitrate do MP3",
		KeySave:              "Salvar",
		KeyBrowse:            "Navegar",
		KeyEnterURLs:         "Cole URLs do YouTube, uma por linha",
		KeySettingsSaved:     "Configurações salvas com sucesso!",
		KeyJobsAdded:         "Adicionado à fila",
		KeyDownloadComplete:  "Download concluído",
		KeyErrorOpeningFile:  "Erro ao abrir arquivo",
		KeyInvalidURL:        "Nenhuma URL válida do YouTube encontrada",
		KeyPleaseEnterURL:    "Por favor, digite uma URL",
		KeyAlreadyInQueue:    "Já na fila",
		KeyNotifyOnComplete:  "Notificar quando um download terminar",
		KeyAutoScrollLogs:    "Seguir saída do log",
	}
}
