package bus

import "errors"

var (
	// ErrNoBrokers signale qu'aucun broker n'est joignable ; seule erreur considérée transitoire.
	ErrNoBrokers = errors.New("aucun broker joignable")
	// ErrConnectionExhausted est renvoyée quand toutes les tentatives de connexion ont échoué.
	ErrConnectionExhausted = errors.New("connexion Kafka épuisée")
	// ErrUnexpectedConnection couvre toute autre erreur pendant l'établissement de la session.
	ErrUnexpectedConnection = errors.New("erreur inattendue lors de la connexion")
	// ErrSendFailure indique qu'un message n'a pas été acquitté ou a été rejeté.
	ErrSendFailure = errors.New("échec d'envoi")
)
